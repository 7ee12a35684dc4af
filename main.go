package main

import (
	"fmt"

	"github.com/dstream/session-service/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		fmt.Println(err.Error())
		return
	}
}
