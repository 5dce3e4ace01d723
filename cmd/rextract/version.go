package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/urfave/cli/v3"
)

// Build information, filled from debug.ReadBuildInfo() when available.
var (
	Version   = "unknown"
	GoVersion = "unknown"
	Commit    = "unknown"
	BuildTime = "unknown"
	Modified  bool
)

func init() {
	parseBuildInfo()
}

func parseBuildInfo() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	Version = info.Main.Version
	GoVersion = info.GoVersion

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			Commit = setting.Value
		case "vcs.time":
			BuildTime = setting.Value
		case "vcs.modified":
			Modified = setting.Value == "true"
		}
	}
}

type versionInfo struct {
	Version   string `json:"version"`
	GoVersion string `json:"go"`
	Commit    string `json:"commit,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
	BuildTime string `json:"built,omitempty"`
}

func currentVersion() versionInfo {
	v := versionInfo{Version: Version, GoVersion: GoVersion, Modified: Modified}
	if Commit != "unknown" {
		v.Commit = Commit
	}
	if BuildTime != "unknown" {
		v.BuildTime = BuildTime
	}
	return v
}

var versionCommand = &cli.Command{
	Name:  "version",
	Usage: "Print version information",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Print version information as JSON",
		},
	},
	Action: func(ctx context.Context, command *cli.Command) error {
		v := currentVersion()
		if command.Bool("json") {
			return json.NewEncoder(os.Stdout).Encode(v)
		}

		fmt.Printf("rextract %s (%s)\n", v.Version, v.GoVersion)
		if v.Commit != "" {
			if v.Modified {
				fmt.Printf("commit: %s (dirty)\n", v.Commit)
			} else {
				fmt.Printf("commit: %s\n", v.Commit)
			}
		}
		if v.BuildTime != "" {
			fmt.Printf("built: %s\n", v.BuildTime)
		}
		return nil
	},
}
