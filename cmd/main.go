// Command campus-events serves the campus events registration and
// attendance API.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
