package api

import (
	"embed"
	"io/fs"
)

//go:embed static/*
var apiStaticFS embed.FS

// dashboardFS serves the embedded operator dashboard assets.
var dashboardFS fs.FS //nolint:gochecknoglobals // embedded assets are process-wide

func init() { //nolint:gochecknoinits // embed setup
	sub, err := fs.Sub(apiStaticFS, "static")
	if err != nil {
		panic(err)
	}
	dashboardFS = sub
}
