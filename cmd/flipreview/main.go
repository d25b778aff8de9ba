// Copyright 2020-2021 The OS-NVR Authors.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation; version 2.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"flag"
	"log"
	"os"

	"flipreview"
)

func main() {
	envFlag := flag.String("env", "/etc/flipreview/env.yaml", "path to env.yaml")
	flag.Parse()

	if err := flipreview.Run(*envFlag); err != nil {
		log.Fatal(err)
	}
	os.Exit(0)
}
