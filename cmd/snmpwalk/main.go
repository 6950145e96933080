// PureSNMP-Go - SNMP client library for Go
// License: MIT

// Command snmpwalk walks one or more subtrees on one or more agents
// and prints every varbind. Targets come from flags or from a YAML
// file with a targets list.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/exhuma/puresnmp-go"
	"github.com/hashicorp/logutils"
	"gopkg.in/yaml.v3"
)

type target struct {
	Host      string `yaml:"host"`
	Version   string `yaml:"version"`
	Community string `yaml:"community"`
	User      string `yaml:"user"`
	AuthProto string `yaml:"authproto"`
	AuthKey   string `yaml:"authkey"`
	PrivProto string `yaml:"privproto"`
	PrivKey   string `yaml:"privkey"`
	Context   string `yaml:"context"`
	Oid       string `yaml:"oid"`
}

type targetsFile struct {
	Targets []target `yaml:"targets"`
}

func main() {
	host := flag.String("host", "", "agent address (host or host:port)")
	version := flag.String("version", "2c", "SNMP version: 1, 2c or 3")
	community := flag.String("community", "public", "community string (v1/v2c)")
	user := flag.String("user", "", "USM user name (v3)")
	authProto := flag.String("authproto", "", "auth protocol: md5, sha1, sha224, sha256, sha384, sha512")
	authKey := flag.String("authkey", "", "auth passphrase (v3)")
	privProto := flag.String("privproto", "", "priv protocol: des, aes, aes192, aes256, aes192a, aes256a")
	privKey := flag.String("privkey", "", "priv passphrase (v3)")
	contextName := flag.String("context", "", "context name (v3)")
	oidArg := flag.String("oid", "1.3.6.1.2.1", "subtree to walk")
	bulk := flag.Bool("bulk", false, "use GetBulk instead of GetNext")
	timeout := flag.Duration("timeout", 300*time.Millisecond, "request timeout")
	retries := flag.Int("retries", 3, "request attempts")
	reps := flag.Int("maxrep", 25, "bulk max-repetitions")
	logLevel := flag.String("log", "WARN", "log level: DEBUG, INFO, WARN, ERROR")
	file := flag.String("f", "", "YAML targets file (overrides -host)")
	flag.Parse()

	filter := &logutils.LevelFilter{
		Levels:   []logutils.LogLevel{"DEBUG", "INFO", "WARN", "ERROR"},
		MinLevel: logutils.LogLevel(*logLevel),
		Writer:   os.Stderr,
	}
	log.SetOutput(filter)
	puresnmp.SetLogger(log.New(filter, "", log.LstdFlags))

	var targets []target
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			log.Fatalf("[ERROR] cannot read %s: %v", *file, err)
		}
		var tf targetsFile
		if err := yaml.Unmarshal(data, &tf); err != nil {
			log.Fatalf("[ERROR] cannot parse %s: %v", *file, err)
		}
		targets = tf.Targets
	} else {
		if *host == "" {
			fmt.Fprintln(os.Stderr, "either -host or -f is required")
			flag.Usage()
			os.Exit(2)
		}
		targets = []target{{
			Host: *host, Version: *version, Community: *community,
			User: *user, AuthProto: *authProto, AuthKey: *authKey,
			PrivProto: *privProto, PrivKey: *privKey,
			Context: *contextName, Oid: *oidArg,
		}}
	}

	cfg := puresnmp.ClientConfig{
		Timeout:        *timeout,
		Retries:        *retries,
		MaxRepetitions: int32(*reps),
		OnFaultyAgent:  puresnmp.PolicyWarn,
	}

	exitCode := 0
	for _, tgt := range targets {
		if err := walkTarget(tgt, cfg, *bulk); err != nil {
			log.Printf("[ERROR] %s: %v", tgt.Host, err)
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

func credentialsFor(tgt target) (puresnmp.Credentials, error) {
	switch tgt.Version {
	case "1":
		return puresnmp.V1{Community: tgt.Community}, nil
	case "", "2c":
		return puresnmp.V2C{Community: tgt.Community}, nil
	case "3":
		return puresnmp.V3{
			UserName:    tgt.User,
			AuthMethod:  tgt.AuthProto,
			AuthKey:     tgt.AuthKey,
			PrivMethod:  tgt.PrivProto,
			PrivKey:     tgt.PrivKey,
			ContextName: tgt.Context,
		}, nil
	}
	return nil, fmt.Errorf("unsupported version %q", tgt.Version)
}

func walkTarget(tgt target, cfg puresnmp.ClientConfig, bulk bool) error {
	creds, err := credentialsFor(tgt)
	if err != nil {
		return err
	}
	oidStr := tgt.Oid
	if oidStr == "" {
		oidStr = "1.3.6.1.2.1"
	}
	root, err := puresnmp.ParseOid(oidStr)
	if err != nil {
		return err
	}

	client, err := puresnmp.NewClient(tgt.Host, creds, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx := context.Background()
	var ch <-chan puresnmp.WalkItem
	if bulk {
		ch = client.BulkWalkChan(ctx, root)
	} else {
		ch = client.WalkChan(ctx, root)
	}

	count := 0
	for item := range ch {
		if item.Err != nil {
			return item.Err
		}
		fmt.Println(item.VarBind)
		count++
	}
	log.Printf("[INFO] %s: %d varbinds under %s", tgt.Host, count, root)
	return nil
}
