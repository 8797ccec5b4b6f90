package main

import (
	"encoding/hex"
	"fmt"
	"io/ioutil"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/lightning-gossipd/gossipd/graph"
	"github.com/lightning-gossipd/gossipd/gossipd"
	"github.com/lightning-gossipd/gossipd/lnwire"
	"github.com/lightning-gossipd/gossipd/signer"
	"github.com/lightningnetwork/lnd/clock"
)

// gossipdMain is the true entry point for the process. Kept separate from
// main so deferred cleanup always runs, regardless of where an error return
// bubbles from (the same split the example pack's daemons use).
func gossipdMain() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer backendLog.Flush()

	gospdLog.Infof("starting gossipd, data dir %s", cfg.DataDir)

	chainHash, err := parseChainHash(cfg.ChainHash)
	if err != nil {
		return fmt.Errorf("invalid chainhash: %w", err)
	}

	nodeKey, err := loadOrGenerateNodeKey(cfg.NodeKeyPath)
	if err != nil {
		return fmt.Errorf("unable to load node key: %w", err)
	}
	localSigner := signer.NewLocalSigner(nodeKey)

	rgb, err := parseRGB(cfg.Color)
	if err != nil {
		return fmt.Errorf("invalid color: %w", err)
	}
	alias, err := lnwire.NewAlias(cfg.Alias)
	if err != nil {
		return fmt.Errorf("invalid alias: %w", err)
	}

	graphPath := filepath.Join(cfg.DataDir, "channel.graph")
	chanGraph, err := graph.NewChannelGraph(graphPath)
	if err != nil {
		return fmt.Errorf("unable to open channel graph: %w", err)
	}
	defer chanGraph.Close()

	engineCfg := &gossipd.Config{
		ChainHash:             chainHash,
		NodeID:                localSigner.PubKey(),
		GlobalFeatures: lnwire.NewRawFeatureVector(
			lnwire.GossipQueriesOptional,
			lnwire.InitialRoutingSyncOptional,
		),
		RGB:                   rgb,
		Alias:                 alias,
		Addresses:             cfg.addresses(),
		BroadcastInterval:     cfg.broadcastInterval(),
		UpdateChannelInterval: cfg.updateChannelInterval(),
		Graph:                 chanGraph,
		Signer:                localSigner,
		Clock:                 clock.NewDefaultClock(),
		MaxSCIDEncodeSize:     cfg.MaxSCIDEncodeSize,
		SuppressGossip:        cfg.SuppressGossip,
	}

	daemon := gossipd.NewDaemon(engineCfg)

	if err := daemon.RegenerateNodeAnnouncement(true); err != nil {
		gospdLog.Warnf("unable to publish initial node announcement: %v", err)
	}

	daemon.Start()
	gospdLog.Infof("gossipd started, node id %x",
		localSigner.PubKey().SerializeCompressed())

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	<-interrupt

	gospdLog.Infof("received shutdown signal, stopping")
	daemon.Stop()

	return nil
}

func main() {
	if err := gossipdMain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// parseChainHash decodes a hex-encoded chain hash into the wire ChainHash
// representation, copying the bytes in the order given (no byte reversal).
func parseChainHash(s string) (lnwire.ChainHash, error) {
	var hash lnwire.ChainHash
	if s == "" {
		return hash, nil
	}

	b, err := hex.DecodeString(s)
	if err != nil {
		return hash, err
	}
	if len(b) != len(hash) {
		return hash, fmt.Errorf("chainhash must be %d bytes, got %d",
			len(hash), len(b))
	}
	copy(hash[:], b)
	return hash, nil
}

// parseRGB decodes a 6-character hex RRGGBB string into an lnwire.RGB.
func parseRGB(s string) (lnwire.RGB, error) {
	if s == "" {
		return lnwire.RGB{}, nil
	}
	if len(s) != 6 {
		return lnwire.RGB{}, fmt.Errorf("color must be 6 hex characters")
	}

	var vals [3]uint8
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseUint(s[i*2:i*2+2], 16, 8)
		if err != nil {
			return lnwire.RGB{}, err
		}
		vals[i] = uint8(v)
	}
	return lnwire.RGB{Red: vals[0], Green: vals[1], Blue: vals[2]}, nil
}

// loadOrGenerateNodeKey reads a hex-encoded private key from path, or
// generates and persists a fresh one if the file doesn't exist yet (or no
// path was configured at all, in which case the key simply isn't
// persisted).
func loadOrGenerateNodeKey(path string) (*btcec.PrivateKey, error) {
	if path == "" {
		return btcec.NewPrivateKey()
	}

	raw, err := ioutil.ReadFile(path)
	if err == nil {
		b, err := hex.DecodeString(string(raw))
		if err != nil {
			return nil, fmt.Errorf("malformed node key file: %w", err)
		}
		priv, _ := btcec.PrivKeyFromBytes(b)
		return priv, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, err
	}
	encoded := hex.EncodeToString(priv.Serialize())
	if err := ioutil.WriteFile(path, []byte(encoded), 0600); err != nil {
		return nil, fmt.Errorf("unable to persist generated node key: %w", err)
	}
	return priv, nil
}
