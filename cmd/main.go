// @title        Garage door API
// @version      1.0
// @description  Door commands, status and health of the garage door monitor.
// @BasePath     /
// @securityDefinitions.apikey  BasicKey
// @in                          header
// @name                        Authorization
// @description                 Basic <shared key>
package main

func main() {
	Execute()
}
