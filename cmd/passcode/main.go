package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/cafemuji/cafemuji-backend/pkg/config"
	"github.com/cafemuji/cafemuji-backend/pkg/logger"
	"github.com/cafemuji/cafemuji-backend/pkg/security"
)

// passcode prints the argon2id hash to put in CAFEMUJI_STAFF_PASSCODE_HASH.
// The plain passcode comes from -passcode, CAFEMUJI_STAFF_PASSCODE, or is
// generated with -generate.
func main() {
	logg := logger.New(logger.Options{ServiceName: "passcode"})
	ctx := context.Background()
	_ = godotenv.Load()

	plain := flag.String("passcode", "", "plain passcode to hash")
	generate := flag.Int("generate", 0, "generate a numeric passcode of this length")
	verify := flag.String("verify", "", "check -passcode against this hash instead of hashing")
	flag.Parse()

	var params config.PasswordConfig
	if err := envconfig.Process(config.EnvPrefix, &params); err != nil {
		logg.Error(ctx, "failed to load argon2 parameters", err)
		os.Exit(1)
	}

	passcode := strings.TrimSpace(*plain)
	if passcode == "" {
		passcode = strings.TrimSpace(os.Getenv(config.EnvStaffPasscodePlain))
	}
	if *generate > 0 {
		generated, err := security.GeneratePasscode(*generate)
		if err != nil {
			logg.Error(ctx, "failed to generate passcode", err)
			os.Exit(1)
		}
		passcode = generated
		fmt.Println("passcode:", passcode)
	}
	if passcode == "" {
		fmt.Fprintf(os.Stderr, "provide -passcode, -generate or %s\n", config.EnvStaffPasscodePlain)
		os.Exit(2)
	}

	if *verify != "" {
		ok, err := security.VerifyPasscode(passcode, *verify)
		if err != nil {
			logg.Error(ctx, "failed to verify passcode", err)
			os.Exit(1)
		}
		if !ok {
			fmt.Println("mismatch")
			os.Exit(1)
		}
		fmt.Println("match")
		if stale, _ := security.NeedsRehash(*verify, params); stale {
			fmt.Println("hash uses weaker argon2 parameters than configured; consider rehashing")
		}
		return
	}

	hash, err := security.HashPasscode(passcode, params)
	if err != nil {
		logg.Error(ctx, "failed to hash passcode", err)
		os.Exit(1)
	}
	fmt.Printf("%s=%s\n", config.EnvStaffPasscodeHash, hash)
}
