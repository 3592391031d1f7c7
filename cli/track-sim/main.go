package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/fieldops/geotrack/cli/tracker/server"
	"github.com/fieldops/geotrack/libs/geo"
)

/*
Track simulator.

Streams synthetic position reports for one technician to a tracker server,
moving from the start position along a fixed heading at the given speed.

Usage:
  -server string
    	Tracker server address in format <ip>:<port> (default "localhost:5020")
  -technician string
    	Technician identifier (required)
  -work-order string
    	Work order identifier
  -lat float
    	Start latitude (default 38.0678)
  -lon float
    	Start longitude (default -120.5386)
  -heading float
    	Movement heading in degrees (default 45)
  -speed float
    	Movement speed in km/h (default 40)
  -count int
    	Number of reports to send (default 10)
  -interval duration
    	Delay between reports (default 1s)

Example

```
./track-sim -technician tech-1 -work-order wo-42 -server localhost:5020 -count 60 -interval 2s
```
*/

func main() {
	serverAddr := ""
	technician := ""
	workOrder := ""
	lat := 0.0
	lon := 0.0
	heading := 0.0
	speedKmh := 0.0
	count := 0
	var interval time.Duration

	flag.StringVar(&serverAddr, "server", "localhost:5020", "Tracker server address in format <ip>:<port>")
	flag.StringVar(&technician, "technician", "", "Technician identifier (required)")
	flag.StringVar(&workOrder, "work-order", "", "Work order identifier")
	flag.Float64Var(&lat, "lat", 38.0678, "Start latitude")
	flag.Float64Var(&lon, "lon", -120.5386, "Start longitude")
	flag.Float64Var(&heading, "heading", 45, "Movement heading in degrees")
	flag.Float64Var(&speedKmh, "speed", 40, "Movement speed in km/h")
	flag.IntVar(&count, "count", 10, "Number of reports to send")
	flag.DurationVar(&interval, "interval", time.Second, "Delay between reports")

	flag.Parse()

	if technician == "" {
		fmt.Println("Technician identifier is required, see help (-h)")
		os.Exit(1)
	}
	if !geo.Validate(lat, lon) {
		fmt.Println("Invalid start position")
		os.Exit(1)
	}

	conn, err := net.Dial("tcp", serverAddr)
	if err != nil {
		fmt.Printf("Failed to connect to %s: %v\n", serverAddr, err)
		os.Exit(1)
	}
	defer conn.Close()

	reader := bufio.NewReader(conn)
	position := geo.Coordinate{Latitude: lat, Longitude: lon}
	stepMeters := speedKmh / 3.6 * interval.Seconds()

	for i := 0; i < count; i++ {
		rep := server.Report{
			TechnicianID: technician,
			WorkOrderID:  workOrder,
			Latitude:     position.Latitude,
			Longitude:    position.Longitude,
			Accuracy:     10,
			Heading:      heading,
			Speed:        speedKmh / 3.6,
			Source:       "gps",
			Timestamp:    time.Now().UTC(),
		}

		payload, err := json.Marshal(rep)
		if err != nil {
			fmt.Printf("Failed to serialize the report: %v\n", err)
			os.Exit(1)
		}

		if _, err := conn.Write(append(payload, '\n')); err != nil {
			fmt.Printf("Failed to send the report: %v\n", err)
			os.Exit(1)
		}

		ack, err := reader.ReadString('\n')
		if err != nil {
			fmt.Printf("Failed to read the ack: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Sent %.6f, %.6f -> %s", position.Latitude, position.Longitude, ack)

		position = geo.Offset(position, heading, stepMeters)
		if i < count-1 {
			time.Sleep(interval)
		}
	}
}
