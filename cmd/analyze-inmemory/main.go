// Command analyze-inmemory computes the same reports as analyze without a database.
package main

import "github.com/LilVoxy/order_analytics/ETL/runner"

func main() {
	runner.Main(runner.ModeInMemory)
}
