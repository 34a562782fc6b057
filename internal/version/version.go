// Package version хранит данные сборки, которые подставляются через -ldflags.
package version

import "fmt"

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Info возвращает версию, коммит и дату сборки.
func Info() (v, c, d string) { return version, commit, date }

// GetVersion возвращает только версию сборки.
func GetVersion() string { return version }

func String() string {
	return fmt.Sprintf("storefront version=%s commit=%s date=%s", version, commit, date)
}
