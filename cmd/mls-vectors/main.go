// Command mls-vectors drives this module from the outside: it can emit and
// check the golden test-vector file (see package testvectors), or run a
// toy two-member group through Add/Update/Remove/Protect end to end as a
// smoke test of the whole stack.
package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/sylph01/mlspp/credential"
	mlscrypto "github.com/sylph01/mlspp/crypto"
	"github.com/sylph01/mlspp/message"
	"github.com/sylph01/mlspp/session"
	mlssyntax "github.com/sylph01/mlspp/syntax"
	"github.com/sylph01/mlspp/testvectors"
)

func main() {
	generate := flag.String("generate", "", "write a golden test-vector file to the given path")
	verify := flag.String("verify", "", "check a golden test-vector file at the given path")
	demo := flag.Bool("demo", false, "run a toy two-member group through Add/Update/Remove/Protect")
	flag.Parse()

	switch {
	case *generate != "":
		if err := runGenerate(*generate); err != nil {
			log.Fatalf("mls-vectors: generate: %v", err)
		}
	case *verify != "":
		if err := runVerify(*verify); err != nil {
			log.Fatalf("mls-vectors: verify: %v", err)
		}
	case *demo:
		if err := runDemo(); err != nil {
			log.Fatalf("mls-vectors: demo: %v", err)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func runGenerate(path string) error {
	suite, err := testvectors.Generate()
	if err != nil {
		return err
	}

	data, err := testvectors.Marshal(suite)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	log.Printf("mls-vectors: wrote %s", path)
	return nil
}

func runVerify(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	suite, err := testvectors.Unmarshal(data)
	if err != nil {
		return err
	}

	if err := suite.Verify(); err != nil {
		return err
	}
	log.Printf("mls-vectors: %s OK", path)
	return nil
}

func runDemo() error {
	suite := mlscrypto.X25519_SHA256_AES128GCM

	alice, err := credential.NewBasicCredential([]byte("alice"), mlscrypto.Ed25519Scheme)
	if err != nil {
		return err
	}
	bob, err := credential.NewBasicCredential([]byte("bob"), mlscrypto.Ed25519Scheme)
	if err != nil {
		return err
	}
	bobCIK, err := credential.NewClientInitKey(randomLeafSecret(), bob, []mlscrypto.CipherSuite{suite})
	if err != nil {
		return err
	}

	aliceSession, err := session.Start([]byte("demo-group"), suite, randomLeafSecret(), alice)
	if err != nil {
		return err
	}
	log.Printf("mls-vectors: alice founded group, epoch %d", 1)

	welcome, addMsg, err := aliceSession.Add(bobCIK)
	if err != nil {
		return err
	}

	var addPT message.MLSPlaintext
	if _, err := mlssyntax.Unmarshal(addMsg, &addPT); err != nil {
		return fmt.Errorf("unmarshaling add message: %w", err)
	}
	bobSession, err := session.Join(welcome, &addPT, bobCIK, bob)
	if err != nil {
		return err
	}
	if err := aliceSession.Handle(addMsg); err != nil {
		return err
	}
	log.Printf("mls-vectors: bob joined, group now has 2 members")

	updateMsg, err := aliceSession.Update(randomLeafSecret())
	if err != nil {
		return err
	}
	if err := bobSession.Handle(updateMsg); err != nil {
		return err
	}
	if err := aliceSession.Handle(updateMsg); err != nil {
		return err
	}
	log.Printf("mls-vectors: alice updated her key")

	ct, err := aliceSession.Protect([]byte("hello from alice"))
	if err != nil {
		return err
	}
	plaintext, err := bobSession.Unprotect(ct)
	if err != nil {
		return err
	}
	log.Printf("mls-vectors: bob decrypted: %q", plaintext)

	removeMsg, err := aliceSession.Remove(1, randomLeafSecret())
	if err != nil {
		return err
	}
	if err := aliceSession.Handle(removeMsg); err != nil {
		return err
	}
	if err := bobSession.Handle(removeMsg); err == nil {
		return fmt.Errorf("removed member unexpectedly followed the group into the new epoch")
	}
	log.Printf("mls-vectors: alice removed bob; bob can no longer follow the group")

	return nil
}

func randomLeafSecret() []byte {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("mls-vectors: generating leaf secret: %v", err)
	}
	return buf
}
