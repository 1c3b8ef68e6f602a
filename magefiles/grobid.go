//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Grobid groups targets that manage the local GROBID container.
type Grobid mg.Namespace

// Start runs GROBID in a container and waits for it to become ready.
func (Grobid) Start() error {
	mg.Deps(Build)
	return sh.RunV(binPath, "grobid", "start", "--wait", "3m")
}

// Stop stops the GROBID container.
func (Grobid) Stop() error {
	mg.Deps(Build)
	return sh.RunV(binPath, "grobid", "stop")
}

// Status reports whether GROBID is reachable.
func (Grobid) Status() error {
	mg.Deps(Build)
	return sh.RunV(binPath, "grobid", "status")
}
