// Package command defines the busstate command line.
//
//	busstate serve    run the metrics endpoint, optionally soaking on a timer
//	busstate soak     run one soak against fresh components and print the report
//	busstate version  print build information
package command
