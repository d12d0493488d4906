// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

// Package service implements the hwbeat control socket: a CBOR
// request-response protocol over a unix socket, one request per
// connection.
//
// The agent registers action handlers on a [SocketServer] and serves
// until its context is canceled. The CLI talks to it through
// [ServiceClient.Call]. Requests are CBOR maps carrying an "action"
// field plus handler-specific fields; responses are the [Response]
// envelope with ok/error/data.
//
// [NewLogger] builds the standard agent logger (JSON on stderr) used
// by everything the daemon wires together.
package service
