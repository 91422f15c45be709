// main.go

package main

import (
	"github.com/CodeMonkeyCybersecurity/pandora/cmd"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/logger"
)

func main() {
	logger.InitializeWithFallback()
	cmd.Execute()
}
