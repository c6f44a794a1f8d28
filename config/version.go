package config

import (
	"fmt"
)

var (
	version = "dev"
	AppName = "linodeDdns"
	intro   = "A dynamic DNS updater that keeps the A/AAAA records of one host in line with its public IP."
	date    = "unknown"
)

func ShowVersion() {
	fmt.Printf("%s %s, built at %s\n%s\n", AppName, version, date, intro)
}

func Version() string {
	return version
}
