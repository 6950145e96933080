// PureSNMP-Go - SNMP client library for Go
// License: MIT

// Command trapreceiver listens for SNMP v2c/v3 traps and informs and
// prints them. Informs are acknowledged automatically.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/exhuma/puresnmp-go"
	"github.com/hashicorp/logutils"
)

func main() {
	listen := flag.String("listen", ":162", "listen address")
	version := flag.String("version", "2c", "SNMP version of the senders: 2c or 3")
	community := flag.String("community", "public", "community string (v2c)")
	user := flag.String("user", "", "USM user name (v3)")
	authProto := flag.String("authproto", "", "auth protocol: md5, sha1, sha224, sha256, sha384, sha512")
	authKey := flag.String("authkey", "", "auth passphrase (v3)")
	privProto := flag.String("privproto", "", "priv protocol: des, aes, aes192, aes256, aes192a, aes256a")
	privKey := flag.String("privkey", "", "priv passphrase (v3)")
	logLevel := flag.String("log", "INFO", "log level: DEBUG, INFO, WARN, ERROR")
	flag.Parse()

	filter := &logutils.LevelFilter{
		Levels:   []logutils.LogLevel{"DEBUG", "INFO", "WARN", "ERROR"},
		MinLevel: logutils.LogLevel(*logLevel),
		Writer:   os.Stderr,
	}
	log.SetOutput(filter)
	puresnmp.SetLogger(log.New(filter, "", log.LstdFlags))

	var creds puresnmp.Credentials
	switch *version {
	case "2c":
		creds = puresnmp.V2C{Community: *community}
	case "3":
		creds = puresnmp.V3{
			UserName:   *user,
			AuthMethod: *authProto,
			AuthKey:    *authKey,
			PrivMethod: *privProto,
			PrivKey:    *privKey,
		}
	default:
		log.Fatalf("[ERROR] unsupported version %q", *version)
	}

	listener, err := puresnmp.ListenTraps(*listen, creds)
	if err != nil {
		log.Fatalf("[ERROR] cannot listen on %s: %v", *listen, err)
	}
	defer listener.Close()
	log.Printf("[INFO] listening for notifications on %s", *listen)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = listener.Serve(ctx, func(trap puresnmp.Trap) {
		kind := "TRAP"
		if trap.Inform {
			kind = "INFORM"
		}
		label := "v2c"
		if trap.Version == puresnmp.VersionV3 {
			label = "v3"
		}
		fmt.Printf("%s %s from %s (%s", time.Now().Format(time.RFC3339), kind, trap.Source, label)
		if trap.UserName != "" {
			fmt.Printf(", user %s", trap.UserName)
		}
		fmt.Println(")")
		for _, vb := range trap.PDU.VarBinds {
			fmt.Printf("  %s\n", vb)
		}
	})
	if err != nil && ctx.Err() == nil {
		log.Fatalf("[ERROR] receiver stopped: %v", err)
	}
}
