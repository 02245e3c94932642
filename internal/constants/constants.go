package constants

// Tool name and related constants
const (
	// ToolName is the name of this tool
	ToolName = "tcdr"

	// ConfigFileName is the default config file name
	ConfigFileName = "tcdr.yaml"

	// EnvVarPrefix is the prefix for environment variables
	EnvVarPrefix = "TCDR"
)

// Coverage report discovery
const (
	// DefaultReportPattern matches the file coverlet writes with --format json
	DefaultReportPattern = "coverage.json"

	// DefaultDashboardFile is where the HTML dashboard is written
	DefaultDashboardFile = "tcdr-dashboard.html"
)

// Server constants
const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 8080
	MinPort     = 1
	MaxPort     = 65535
)

// Explorer and hotspot defaults
const (
	DefaultPageSize     = 50
	DefaultHotspotLimit = 20
	DefaultHistoryLimit = 30
)

// Runner defaults
const (
	DefaultRunnerTimeoutSeconds = 600
)

// DefaultRunnerCommand runs the .NET test suite with coverlet collection
var DefaultRunnerCommand = []string{
	"dotnet", "test",
	"/p:CollectCoverage=true",
	"/p:CoverletOutputFormat=json",
}
