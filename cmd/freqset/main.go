package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/roman-kulish/field-receiver/internal/instrument"
)

func main() {
	var (
		host    string
		port    int
		timeout time.Duration
	)
	flag.StringVar(&host, "host", "", "Instrument host")
	flag.IntVar(&port, "port", 5555, "Instrument port")
	flag.DurationVar(&timeout, "timeout", 3*time.Second, "Read timeout")
	flag.Parse()

	if host == "" || flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s -host <addr> [-port <n>] [-timeout <d>] <frequency MHz>\n", os.Args[0])
		os.Exit(2)
	}

	result, err := instrument.SetFrequency(host, port, flag.Arg(0), timeout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(result)
}
