package version

import (
	"fmt"
	"runtime"
)

// Populated at build time via -ldflags.
var (
	gitVersion = "v0.0.0-unknown"
	gitCommit  = ""
)

type Info struct {
	GitVersion string `json:"gitVersion"`
	GitCommit  string `json:"gitCommit"`
	GoVersion  string `json:"goVersion"`
	Platform   string `json:"platform"`
}

func (i Info) String() string {
	return i.GitVersion
}

func Get() Info {
	return Info{
		GitVersion: gitVersion,
		GitCommit:  gitCommit,
		GoVersion:  runtime.Version(),
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}
