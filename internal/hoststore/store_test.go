package hoststore

import (
	"bytes"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gwillem/signal-bridge/internal/bridge"
	"github.com/gwillem/signal-bridge/internal/engine"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// bridged opens a store, registers it on a fresh registry and returns an
// engine configured with that registry's adapters.
func bridged(t *testing.T) (*Store, *engine.Engine) {
	t.Helper()
	s := tempStore(t)
	r := bridge.NewRegistry()
	s.Register(r)
	return s, engine.New(r.StoreFuncs(), nil)
}

func TestOpenCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "dir", "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if _, err := os.Stat(filepath.Dir(path)); os.IsNotExist(err) {
		t.Fatal("directory should have been created")
	}
}

func TestSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatal(err)
	}
	if version != len(migrations) {
		t.Fatalf("user_version = %d, want %d", version, len(migrations))
	}
	if _, err := s.db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	if _, err := Open(path); err == nil || !strings.Contains(err.Error(), "newer than this build") {
		t.Fatalf("expected newer-schema error, got %v", err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	addr := &engine.Address{Name: "alice", DeviceID: 1}
	if err := s.StoreSession(addr, &engine.SessionRecord{Data: []byte("rec")}); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	rec, err := s.LoadSession(addr)
	if err != nil {
		t.Fatal(err)
	}
	if rec == nil || string(rec.Data) != "rec" {
		t.Fatalf("session after reopen = %+v", rec)
	}

	if err := s.ArchiveSession(addr); err != nil {
		t.Fatal(err)
	}
	if rec, err := s.LoadSession(addr); err != nil || rec != nil {
		t.Fatalf("session after archive = %v, %v", rec, err)
	}
}

func TestIdentityThroughBridge(t *testing.T) {
	s, e := bridged(t)

	// No identity yet: the handler fails and the engine sees the raw status.
	_, _, err := e.LocalIdentity()
	var se *engine.StoreError
	if !errors.As(err, &se) || se.Status != bridge.StatusHandlerFailed {
		t.Fatalf("err = %v, want handler failure", err)
	}

	key, err := engine.GeneratePrivateKey()
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetIdentity(key, 777); err != nil {
		t.Fatal(err)
	}
	got, regID, err := e.LocalIdentity()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got.Data, key.Data) || regID != 777 {
		t.Fatalf("identity = %x/%d", got.Data, regID)
	}
}

func TestSessionAndTrustThroughBridge(t *testing.T) {
	_, e := bridged(t)
	bob := &engine.Address{Name: "bob", DeviceID: 3}
	bobKey := &engine.PublicKey{Data: []byte("bob-key")}

	if rec, err := e.LoadSession(bob); err != nil || rec != nil {
		t.Fatalf("LoadSession before store = %v, %v", rec, err)
	}
	if err := e.ProcessPreKeyBundle(bob, bobKey, &engine.SessionRecord{Data: []byte("s1")}); err != nil {
		t.Fatal(err)
	}
	rec, err := e.ReceiveFrom(bob, bobKey)
	if err != nil {
		t.Fatal(err)
	}
	if string(rec.Data) != "s1" {
		t.Fatalf("session = %q", rec.Data)
	}
	if k, err := e.RemoteIdentity(bob); err != nil || !k.Equal(bobKey) {
		t.Fatalf("RemoteIdentity = %v, %v", k, err)
	}

	_, err = e.ReceiveFrom(bob, &engine.PublicKey{Data: []byte("other")})
	if !errors.Is(err, engine.ErrUntrustedIdentity) {
		t.Fatalf("err = %v, want untrusted", err)
	}
}

func TestPreKeysThroughBridge(t *testing.T) {
	s, e := bridged(t)
	var logBuf bytes.Buffer
	s.SetLogger(log.New(&logBuf, "", 0))

	err := e.InstallPreKeys(
		[]*engine.PreKeyRecord{{ID: 1, Data: []byte("p1")}, {ID: 2, Data: []byte("p2")}},
		&engine.SignedPreKeyRecord{ID: 10, Data: []byte("sp")},
		[]*engine.KyberPreKeyRecord{{ID: 20, Data: []byte("kp")}},
	)
	if err != nil {
		t.Fatal(err)
	}

	got, err := e.ConsumePreKeys(engine.PreKeyIDs{PreKey: 1, SignedPreKey: 10, KyberPreKey: 20}, &engine.PublicKey{Data: []byte("base")})
	if err != nil {
		t.Fatal(err)
	}
	if string(got.PreKey.Data) != "p1" || string(got.SignedPreKey.Data) != "sp" || string(got.KyberPreKey.Data) != "kp" {
		t.Fatalf("consumed = %+v", got)
	}
	used, err := s.KyberPreKeyUsed(20)
	if err != nil || !used {
		t.Fatalf("kyber used = %v, %v", used, err)
	}
	if _, err := s.LoadPreKey(1); err == nil {
		t.Fatal("pre-key 1 should have been removed")
	}
	if _, err := s.LoadPreKey(2); err != nil {
		t.Fatalf("pre-key 2: %v", err)
	}

	// Pre-key 1 is gone: the load fails inside the handler.
	_, err = e.ConsumePreKeys(engine.PreKeyIDs{PreKey: 1, SignedPreKey: 10, KyberPreKey: 20}, nil)
	var se *engine.StoreError
	if !errors.As(err, &se) || se.Op != bridge.OpLoadPreKey {
		t.Fatalf("err = %v, want LoadPreKey failure", err)
	}
	if !strings.Contains(logBuf.String(), "pre-key 1 not found") {
		t.Errorf("log = %q", logBuf.String())
	}
}

func TestDispatchRoutedHostStore(t *testing.T) {
	s := tempStore(t)
	host := bridge.NewRegistry()
	s.Register(host)

	table := bridge.NewSymbolTable()
	table.Export("hoststore_dispatch", host.Mux())
	engineSide := bridge.NewRegistry(bridge.WithSymbolResolver(table))
	if err := engineSide.RegisterDispatchByName("hoststore_dispatch"); err != nil {
		t.Fatal(err)
	}
	e := engine.New(engineSide.DispatchStore(), nil)

	carol := &engine.Address{Name: "carol", DeviceID: 1}
	if err := e.ProcessPreKeyBundle(carol, &engine.PublicKey{Data: []byte("ck")}, &engine.SessionRecord{Data: []byte("cs")}); err != nil {
		t.Fatal(err)
	}
	rec, err := s.LoadSession(carol)
	if err != nil || rec == nil || string(rec.Data) != "cs" {
		t.Fatalf("stored session = %v, %v", rec, err)
	}
}
