// Package version хранит сведения о сборке, подставляемые через -ldflags:
//
//	-X github.com/vladislavdragonenkov/delivery/internal/version.version=v1.2.0
package version

import "fmt"

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// BuildInfo описывает собранный бинарник.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// Get возвращает сведения о текущей сборке.
func Get() BuildInfo {
	return BuildInfo{Version: version, Commit: commit, Date: date}
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("delivery-service version=%s commit=%s date=%s", b.Version, b.Commit, b.Date)
}
