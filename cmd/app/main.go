package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/integrations/backendclient"
	"github.com/m04kA/SMC-RentalService/internal/protocol/appmsg"
	"github.com/m04kA/SMC-RentalService/pkg/logger"
)

// invalidType тип сообщения вне перечисления, для проверки ответа INVALID_TYPE
const invalidType appmsg.MessageType = 100

const usage = `commands:
  register <address:port>
  request_cars
  start_rental <address:port>
  end_rental <address:port>
  bad_message_type
  exit`

func main() {
	backend := pflag.String("backend", fmt.Sprintf("%s:%d", domain.DefaultBackendHost, domain.DefaultBackendPort), "backend address")
	userID := pflag.Uint16("user-id", 1, "user id sent in every request")
	timeout := pflag.Duration("timeout", 5*time.Second, "dial and request timeout")
	logLevel := pflag.String("log-level", "warn", "log level")
	pflag.Parse()

	log, err := logger.New("", *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	ctx := context.Background()
	client, err := backendclient.Dial(ctx, *backend, *userID, *timeout)
	if err != nil {
		log.Fatal("Failed to connect to backend: %v", err)
	}
	defer client.Close()

	log.Info("Connected to backend %s as user %d", *backend, *userID)
	fmt.Println(usage)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "exit" {
			return
		}

		msgType, payload, ok := parseCommand(fields)
		if !ok {
			fmt.Println(usage)
			continue
		}

		resp, err := client.Do(ctx, msgType, payload)
		if err != nil {
			log.Error("Request %s failed: %v", msgType, err)
			return
		}
		printResponse(resp)
	}
}

func parseCommand(fields []string) (appmsg.MessageType, string, bool) {
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch fields[0] {
	case "register":
		return appmsg.TypeRegister, arg, arg != ""
	case "request_cars":
		return appmsg.TypeRequestCars, "", true
	case "start_rental":
		return appmsg.TypeStartRental, arg, arg != ""
	case "end_rental":
		return appmsg.TypeEndRental, arg, arg != ""
	case "bad_message_type":
		return invalidType, "", true
	default:
		return 0, "", false
	}
}

func printResponse(resp appmsg.Message) {
	if resp.Type != appmsg.TypeCarList {
		fmt.Println(resp.Type)
		return
	}

	cars := backendclient.ParseCarList(resp.Payload)
	fmt.Printf("%s (%d)\n", resp.Type, len(cars))
	for _, car := range cars {
		fmt.Printf("  %s\n", car)
	}
}
