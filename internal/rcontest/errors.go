package rcontest

import "github.com/pkg/errors"

var errNoPeer = errors.New("rcontest: no client has connected yet")
