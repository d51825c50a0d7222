// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import "github.com/muesli/termenv"

var (
	lookingUpStyle = termenv.Style{}.Foreground(termenv.ANSIYellow)
	enrichedStyle  = termenv.Style{}.Foreground(termenv.ANSIGreen)
	failedStyle    = termenv.Style{}.Foreground(termenv.ANSIRed)
)

var (
	headingStyle  = termenv.Style{}.Bold()
	warningStyle  = termenv.Style{}.Foreground(termenv.ANSIYellow).Bold()
	artifactStyle = termenv.Style{}.Underline()
)
