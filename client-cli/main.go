// A minimal interactive client for the goparley chat server.  The protocol
// is plain text lines, so the client only shuttles lines between stdin and
// the connection.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"sync"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:2323", "server address")
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		log.Fatalf("connect failed: %v", err)
	}
	defer conn.Close()
	fmt.Printf("connected to %s\n", *addr)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r := bufio.NewReader(conn)
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				fmt.Println("connection closed")
				return
			}
			fmt.Print(line)
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if _, err := conn.Write(append(scanner.Bytes(), '\n')); err != nil {
			fmt.Printf("send error: %v\n", err)
			break
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Printf("stdin error: %v\n", err)
	}
	_ = conn.Close()
	wg.Wait()
}
