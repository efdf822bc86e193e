// Command analyze loads the customer table and the order document into MySQL or SQLite
// and prints the loyalty, monthly, regional and recent customer reports.
package main

import "github.com/LilVoxy/order_analytics/ETL/runner"

func main() {
	runner.Main(runner.ModePersistent)
}
