// @title Embedding Harmonizer API
// @version 1.0
// @description Model registry, embedding dimension standardization and discovery control.

// @contact.name API Support
// @license.name MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http

package main

import (
	"embedding-harmonizer/cmd/harmonizer/cmd"
)

func main() {
	cmd.Execute()
}
