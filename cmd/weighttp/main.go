// Copyright 2026 The Weighttp Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command weighttp is a multi-threaded, non-blocking HTTP/1.1 load
// generator: it issues a fixed number of GET requests over a fixed number
// of concurrent connections, partitioned across worker threads, and
// reports aggregate throughput and status-code counts.
package main

import (
	"flag"
	"fmt"
	"os"

	"fortio.org/log"
	"weighttp.dev/weighttp/coordinator"
	"weighttp.dev/weighttp/version"
)

// headerFlags collects repeated -H flags in the order given.
type headerFlags []string

func (h *headerFlags) String() string { return "" }

func (h *headerFlags) Set(value string) error {
	*h = append(*h, value)
	return nil
}

func usage() {
	fmt.Println("weighttp <options> <url>")
	fmt.Println("  -n num   number of requests    (mandatory)")
	fmt.Println("  -t num   threadcount           (default: 1)")
	fmt.Println("  -c num   concurrent clients    (default: 1)")
	fmt.Println("  -k       keep alive            (default: no)")
	fmt.Println("  -6       use ipv6              (default: no)")
	fmt.Println("  -H str   add header to request")
	fmt.Println("  -h       show help and exit")
	fmt.Println("  -v       show version and exit")
	fmt.Println()
	fmt.Println(`example: weighttp -n 10000 -c 10 -t 2 -k -H "User-Agent: foo" localhost/index.html`)
	fmt.Println()
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out *os.File) int {
	fs := flag.NewFlagSet("weighttp", flag.ContinueOnError)
	fs.Usage = usage

	reqCount := fs.Uint64("n", 0, "number of requests (mandatory)")
	threadCount := fs.Int("t", 1, "thread count")
	concurCount := fs.Int("c", 1, "concurrent clients")
	keepAlive := fs.Bool("k", false, "keep alive")
	useIPv6 := fs.Bool("6", false, "use ipv6")
	showHelp := fs.Bool("h", false, "show help and exit")
	showVersion := fs.Bool("v", false, "show version and exit")
	var headers headerFlags
	fs.Var(&headers, "H", "add header to request (repeatable)")

	fmt.Fprintf(out, "weighttp %s - a lightweight and simple webserver benchmarking tool\n\n", version.Short())

	if err := fs.Parse(args); err != nil {
		return coordinator.ExitArgumentError
	}

	if *showHelp {
		usage()
		return coordinator.ExitOK
	}
	if *showVersion {
		fmt.Fprintln(out, version.Long())
		return coordinator.ExitOK
	}

	rest := fs.Args()
	if len(rest) < 1 {
		log.Errf("missing url argument")
		usage()
		return coordinator.ExitArgumentError
	}
	if len(rest) > 1 {
		log.Errf("too many arguments")
		usage()
		return coordinator.ExitArgumentError
	}

	opts := coordinator.Options{
		URL:         rest[0],
		ReqCount:    *reqCount,
		ThreadCount: *threadCount,
		ConcurCount: *concurCount,
		KeepAlive:   *keepAlive,
		UseIPv6:     *useIPv6,
		Headers:     headers,
	}
	return coordinator.Run(opts, out)
}
