package testutil

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// Sample datasets in the layout of the three reference inputs.
const (
	// Dataset1CSV holds vehicle counts per (id_1, id_2) pair and route
	Dataset1CSV = `id_1,id_2,route,moto,car,rv,bus,truck
801,802,11,2,12,1,4,9
801,803,11,1,18,0,2,8
802,801,12,3,27,2,3,6
802,803,13,0,9,1,30,7
803,801,12,1,22,0,1,5
803,802,13,4,31,3,2,8
`

	// Dataset2CSV holds weekly spans per (id, id_2) pair
	Dataset2CSV = `id,id_2,startDay,startTime,endDay,endTime
1014000,-1,Monday,05:00:00,Wednesday,10:00:00
1014000,-1,Tuesday,10:00:00,Saturday,09:59:59
1014002,-1,Monday,00:00:00,Sunday,23:59:59
1014003,-1,Friday,00:00:00,Friday,23:59:59
1030000,-1,Thursday,06:00:00,Monday,18:00:00
`

	// Dataset3CSV is a wide matrix of road segment lengths between toll
	// locations, zero where no direct segment exists
	Dataset3CSV = `id,1001400,1001402,1001404,1001406,1001408
1001400,0,9.7,0,0,0
1001402,9.7,0,20.2,0,0
1001404,0,20.2,0,16.0,0
1001406,0,0,16.0,0,21.7
1001408,0,0,0,21.7,0
`

	// TimestampsCSV holds vehicle passages with timestamps
	TimestampsCSV = `id_start,id_end,distance,timestamp
1001400,1001402,9.7,2023-10-02 04:15:00
1001402,1001404,20.2,2023-10-02 08:30:00
1001404,1001406,16.0,2023-10-02 13:45:00
1001406,1001400,25.0,2023-10-02 21:00:00
`
)

// Fixtures maps fixture file names to their content
var Fixtures = map[string]string{
	"dataset-1.csv":  Dataset1CSV,
	"dataset-2.csv":  Dataset2CSV,
	"dataset-3.csv":  Dataset3CSV,
	"timestamps.csv": TimestampsCSV,
}

// DatasetSuite provides a temporary directory pre-populated with Fixtures
// for end-to-end tests.
type DatasetSuite struct {
	suite.Suite
	ctx       context.Context
	cancel    context.CancelFunc
	tempDir   string
	startTime time.Time
}

// SetupSuite runs before all tests in the suite
func (s *DatasetSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), 5*time.Minute)
	s.startTime = time.Now()

	tempDir, err := os.MkdirTemp("", "tollframe-test-*")
	require.NoError(s.T(), err)
	s.tempDir = tempDir

	for name, content := range Fixtures {
		require.NoError(s.T(), os.WriteFile(filepath.Join(tempDir, name), []byte(content), 0o600))
	}
}

// TearDownSuite runs after all tests in the suite
func (s *DatasetSuite) TearDownSuite() {
	s.cancel()
	if s.tempDir != "" {
		_ = os.RemoveAll(s.tempDir)
	}
	s.T().Logf("dataset suite finished in %v", time.Since(s.startTime))
}

// Context returns the suite context
func (s *DatasetSuite) Context() context.Context {
	return s.ctx
}

// Path returns the path of name inside the suite directory
func (s *DatasetSuite) Path(name string) string {
	return filepath.Join(s.tempDir, name)
}
