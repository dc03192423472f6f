// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package setup builds a ready-to-run Skript test server folder.
//
// A Plan names the Paper build, the Skript release and any addons. Install
// downloads them, writes a Skript config.sk with effect commands enabled,
// accepts the EULA and writes start scripts. Resolving versions against
// the remote APIs is the caller's job; this package only touches disk.
//
// Layout of an installed server:
//
//	<name>/
//	  server.jar
//	  eula.txt
//	  run.bat
//	  run.sh
//	  plugins/
//	    Skript-<version>.jar
//	    <addon>-<version>.jar
//	    Skript/config.sk
package setup
