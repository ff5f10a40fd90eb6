// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "fmt"

// BuildUnknown stands in for build metadata that was not set with -ldflags.
const BuildUnknown = "N/A"

// AppBuildInfo is the version stamp of a binary.
type AppBuildInfo struct {
	Version string
	Date    string
	Commit  string
}

func NewAppBuildInfo(version, date, commit string) AppBuildInfo {
	return AppBuildInfo{Version: version, Date: date, Commit: commit}
}

// WithDefaults replaces every blank field with [BuildUnknown].
func (a AppBuildInfo) WithDefaults() AppBuildInfo {
	for _, f := range []*string{&a.Version, &a.Date, &a.Commit} {
		if *f == "" {
			*f = BuildUnknown
		}
	}
	return a
}

func (a AppBuildInfo) String() string {
	a = a.WithDefaults()
	return fmt.Sprintf("Build version: %s\nBuild date: %s\nBuild commit: %s\n", a.Version, a.Date, a.Commit)
}
