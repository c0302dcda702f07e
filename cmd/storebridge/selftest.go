package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	signalbridge "github.com/gwillem/signal-bridge"
	"github.com/gwillem/signal-bridge/internal/engine"
)

type selftestCommand struct {
	Rounds int `short:"n" long:"rounds" default:"1" description:"Number of remote parties to run the flows for"`
}

func (cmd *selftestCommand) Execute(args []string) error {
	dbPath := opts.DB
	if dbPath == "" {
		dir, err := os.MkdirTemp("", "storebridge-")
		if err != nil {
			return err
		}
		defer os.RemoveAll(dir)
		dbPath = filepath.Join(dir, "selftest.db")
	}

	modes := []bool{false, true}
	if opts.Dispatch {
		modes = []bool{true}
	}
	for _, dispatch := range modes {
		name := "direct"
		if dispatch {
			name = "dispatch"
		}
		if opts.Native {
			name += " (native)"
		}
		fmt.Printf("=== %s ===\n", name)
		if err := runSelftest(dbPath, dispatch, cmd.Rounds); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	fmt.Println("OK")
	return nil
}

func runSelftest(dbPath string, dispatch bool, rounds int) error {
	b, err := signalbridge.Open(bridgeOpts(dbPath, dispatch)...)
	if err != nil {
		return err
	}
	defer b.Close()
	e := b.Engine()

	key, regID, err := e.LocalIdentity()
	if err != nil {
		return fmt.Errorf("local identity: %w", err)
	}
	pub, err := key.PublicKey()
	if err != nil {
		return err
	}
	fmt.Printf("Identity key (first 8 bytes): %s\n", hex.EncodeToString(pub.Data[:8]))
	fmt.Printf("Registration ID: %d\n", regID)

	for i := 0; i < rounds; i++ {
		remote := &signalbridge.Address{Name: uuid.NewString(), DeviceID: 1}
		if err := sessionFlow(e, remote); err != nil {
			return fmt.Errorf("session %s: %w", remote, err)
		}
		fmt.Printf("  session with %s: ok\n", remote)

		base := uint32(i*10 + 1)
		if err := preKeyFlow(b, e, base); err != nil {
			return fmt.Errorf("pre-keys: %w", err)
		}
		fmt.Printf("  pre-keys %d..%d: ok\n", base, base+2)
	}
	return nil
}

func sessionFlow(e *signalbridge.Engine, remote *signalbridge.Address) error {
	theirs, err := engine.GeneratePrivateKey()
	if err != nil {
		return err
	}
	theirPub, err := theirs.PublicKey()
	if err != nil {
		return err
	}
	session := &engine.SessionRecord{Data: []byte("session:" + remote.String())}
	if err := e.ProcessPreKeyBundle(remote, theirPub, session); err != nil {
		return err
	}
	got, err := e.ReceiveFrom(remote, theirPub)
	if err != nil {
		return err
	}
	if got == nil || string(got.Data) != string(session.Data) {
		return fmt.Errorf("loaded session does not match stored session")
	}

	other, err := engine.GeneratePrivateKey()
	if err != nil {
		return err
	}
	otherPub, err := other.PublicKey()
	if err != nil {
		return err
	}
	if _, err := e.ReceiveFrom(remote, otherPub); !errors.Is(err, engine.ErrUntrustedIdentity) {
		return fmt.Errorf("changed identity accepted (err=%v)", err)
	}
	return nil
}

func preKeyFlow(b *signalbridge.Bridge, e *signalbridge.Engine, base uint32) error {
	ids := engine.PreKeyIDs{PreKey: base, SignedPreKey: base + 1, KyberPreKey: base + 2}
	err := e.InstallPreKeys(
		[]*engine.PreKeyRecord{{ID: ids.PreKey, Data: []byte("pre-key")}},
		&engine.SignedPreKeyRecord{ID: ids.SignedPreKey, Data: []byte("signed pre-key")},
		[]*engine.KyberPreKeyRecord{{ID: ids.KyberPreKey, Data: []byte("kyber pre-key")}},
	)
	if err != nil {
		return err
	}
	baseKey, err := engine.GeneratePrivateKey()
	if err != nil {
		return err
	}
	basePub, err := baseKey.PublicKey()
	if err != nil {
		return err
	}
	if _, err := e.ConsumePreKeys(ids, basePub); err != nil {
		return err
	}
	used, err := b.Store().KyberPreKeyUsed(ids.KyberPreKey)
	if err != nil {
		return err
	}
	if !used {
		return fmt.Errorf("kyber pre-key %d not marked used", ids.KyberPreKey)
	}
	if _, err := b.Store().LoadPreKey(ids.PreKey); err == nil {
		return fmt.Errorf("pre-key %d not removed", ids.PreKey)
	}
	return nil
}
