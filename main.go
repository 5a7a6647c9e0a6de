package main

import (
	"github.com/joho/godotenv"

	"attendance-kiosk/cmd"
)

func main() {
	godotenv.Load()
	cmd.Execute()
}
