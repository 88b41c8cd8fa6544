// Package frame provides the in-memory table every tollframe transformation
// consumes and produces.
//
// A Table is an ordered collection of named columns. Each column holds values
// of a single type (string, int, float, bool or timestamp) and all columns
// have the same length. Rows are addressable by position or by their integer
// index label:
//
//	t := frame.MustFromColumns(
//	    []string{"route", "truck"},
//	    []frame.Column{
//	        frame.NewStringColumn("A", "B", "A"),
//	        frame.NewIntColumn(8, 2, 9),
//	    },
//	)
//	trucks, err := t.Float64s("truck") // [8 2 9]
//	heavy := t.Take([]int{0, 2})       // index labels stay 0 and 2
//
// Float columns use NaN for missing values; aggregations in the analysis
// packages skip them.
package frame
