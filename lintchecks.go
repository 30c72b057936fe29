package lintchecks

// Version is reported in SARIF output and by the CLI.
const Version = "0.1.0"
