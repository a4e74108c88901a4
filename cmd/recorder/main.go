package main

import (
	"ui-recorder/internal/bootstrap"
)

func main() {
	bootstrap.NewApp().Run()
}
