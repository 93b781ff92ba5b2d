// Package main provides the mofel hotword listener.
//
// Usage:
//
//	mofel [flags] <command> [args]
//
// Commands:
//
//	listen     - Wait for hotwords on the microphone
//	detect     - Score a WAV recording frame by frame
//	profile    - Inspect, enroll and convert reference profiles
//	transcribe - Transcribe a WAV recording
//	config     - Configuration management
//
// Configuration:
//
//	The CLI stores configuration in ~/.mofel/mofel/
//	Use 'mofel config' commands to manage contexts.
package main

import (
	"fmt"
	"os"

	"github.com/Souzou03/mofel/cmd/mofel/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
