package main

import (
	taphubspot "github.com/datazip-inc/tap-hubspot"
	driver "github.com/datazip-inc/tap-hubspot/drivers/hubspot/internal"
)

func main() {
	driver := &driver.Hubspot{}
	taphubspot.RegisterDriver(driver)
}
