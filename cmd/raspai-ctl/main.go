package main

import (
	"fmt"
	"os"
	"strings"

	"raspai/internal/ipc"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: raspai-ctl trigger|stop|clear|say <text>")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cmd := os.Args[1]
	text := ""

	switch cmd {
	case "trigger", "stop", "clear":
	case "say":
		if len(os.Args) < 3 {
			usage()
		}
		text = strings.Join(os.Args[2:], " ")
	default:
		usage()
	}

	if err := ipc.SendCommand(cmd, text); err != nil {
		fmt.Println("raspai not running:", err)
		os.Exit(1)
	}
}
