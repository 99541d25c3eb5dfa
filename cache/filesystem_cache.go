package cache

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/symsrv/symproxy/config"
	"github.com/symsrv/symproxy/internal/counter"
)

// fileSystemCache persists responses as two files per entry - a body blob
// and a metadata record - named by the cache key. Freshness is tracked
// solely by the in-memory expiry table: a key without a live expiry record
// is absent no matter what is on disk.
type fileSystemCache struct {
	dir      string
	maxItems int
	hitTTL   time.Duration
	missTTL  time.Duration

	mu     sync.Mutex
	expiry map[string]time.Time

	pendingWrites counter.Counter

	wg     sync.WaitGroup
	stopCh chan struct{}
}

// New returns a disk-backed cache for the given cfg.
//
// The cache starts cold: any pre-existing contents of cfg.Dir are wiped so
// the expiry table and the on-disk state can never diverge across restarts.
func New(cfg config.Cache) (Cache, error) {
	return newFileSystemCache(cfg)
}

func newFileSystemCache(cfg config.Cache) (*fileSystemCache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := os.RemoveAll(cfg.Dir); err != nil {
		return nil, fmt.Errorf("cannot wipe cache dir %q: %w", cfg.Dir, err)
	}
	if err := os.MkdirAll(cfg.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("cannot create cache dir %q: %w", cfg.Dir, err)
	}

	f := &fileSystemCache{
		dir:      cfg.Dir,
		maxItems: cfg.MaxItems,
		hitTTL:   cfg.HitTTL,
		missTTL:  cfg.MissTTL,
		expiry:   make(map[string]time.Time),
		stopCh:   make(chan struct{}),
	}

	f.wg.Add(1)
	go func() {
		logrus.Debugf("cache: cleaner start in %q", f.dir)
		f.cleaner()
		logrus.Debugf("cache: cleaner stop in %q", f.dir)
		f.wg.Done()
	}()

	return f, nil
}

func (f *fileSystemCache) Close() error {
	close(f.stopCh)
	f.wg.Wait()
	return nil
}

func (f *fileSystemCache) Stats() Stats {
	f.mu.Lock()
	items := uint64(len(f.expiry))
	f.mu.Unlock()

	return Stats{
		Items:         items,
		PendingWrites: f.pendingWrites.Load(),
	}
}

func (f *fileSystemCache) Get(key *Key) (*CachedResponse, error) {
	ks := key.String()

	f.mu.Lock()
	deadline, ok := f.expiry[ks]
	lapsed := ok && !time.Now().Before(deadline)
	if lapsed {
		delete(f.expiry, ks)
	}
	f.mu.Unlock()

	if lapsed {
		// The disk artifacts may outlive the expiry record; drop them in
		// the background so the next fetch starts from a clean slate.
		go f.removeArtifacts(ks)
		return nil, ErrMissing
	}
	if !ok {
		return nil, ErrMissing
	}

	mf, err := os.Open(metaFilePath(f.dir, ks))
	if err != nil {
		return nil, f.dropBroken(ks, fmt.Errorf("cannot open metadata for %q: %w", ks, err))
	}
	statusCode, header, err := decodeMetadata(mf)
	mf.Close()
	if err != nil {
		return nil, f.dropBroken(ks, fmt.Errorf("cannot decode metadata for %q: %w", ks, err))
	}

	// The file will be closed by the caller once the body has been read.
	bf, err := os.Open(bodyFilePath(f.dir, ks))
	if err != nil {
		return nil, f.dropBroken(ks, fmt.Errorf("cannot open body for %q: %w", ks, err))
	}

	return &CachedResponse{
		StatusCode: statusCode,
		Header:     header,
		Body:       bf,
		Ttl:        time.Until(deadline),
	}, nil
}

// dropBroken purges a registered entry whose disk artifacts turned out to
// be unreadable and downgrades the failure to a plain miss.
func (f *fileSystemCache) dropBroken(ks string, err error) error {
	logrus.WithField("key", ks).Errorf("cache: %s; treating as miss", err)

	f.mu.Lock()
	delete(f.expiry, ks)
	f.mu.Unlock()

	go f.removeArtifacts(ks)
	return ErrMissing
}

func (f *fileSystemCache) ReserveCapacity() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.expiry) < f.maxItems
}

func (f *fileSystemCache) Finalize(key *Key, statusCode int, header http.Header, body io.Reader) error {
	f.pendingWrites.Inc()
	defer f.pendingWrites.Dec()

	ks := key.String()

	// Body and metadata are written as two independent operations with no
	// assumed completion order; the expiry record is registered only after
	// both have succeeded, so a partial write is never visible to Get.
	var g errgroup.Group
	g.Go(func() error {
		return writeBodyFile(bodyFilePath(f.dir, ks), body)
	})
	g.Go(func() error {
		return writeMetaFile(metaFilePath(f.dir, ks), statusCode, header)
	})
	if err := g.Wait(); err != nil {
		f.removeArtifacts(ks)
		return fmt.Errorf("cannot finalize %q: %w", ks, err)
	}

	ttl := f.missTTL
	if statusCode == http.StatusOK {
		ttl = f.hitTTL
	}

	f.mu.Lock()
	f.expiry[ks] = time.Now().Add(ttl)
	f.mu.Unlock()
	return nil
}

func (f *fileSystemCache) removeArtifacts(ks string) {
	for _, fp := range []string{bodyFilePath(f.dir, ks), metaFilePath(f.dir, ks)} {
		if err := os.Remove(fp); err != nil && !os.IsNotExist(err) {
			logrus.Errorf("cache: cannot remove %q: %s", fp, err)
		}
	}
}

// cleaner periodically sweeps lapsed expiry records and their disk
// artifacts so capacity frees up even for keys that are never looked
// up again.
func (f *fileSystemCache) cleaner() {
	d := f.missTTL / 2
	if d < time.Minute {
		d = time.Minute
	}
	if d > time.Hour {
		d = time.Hour
	}

	for {
		select {
		case <-time.After(d):
			f.clean()
		case <-f.stopCh:
			return
		}
	}
}

func (f *fileSystemCache) clean() {
	currentTime := time.Now()

	f.mu.Lock()
	var stale []string
	for ks, deadline := range f.expiry {
		if !currentTime.Before(deadline) {
			stale = append(stale, ks)
		}
	}
	for _, ks := range stale {
		delete(f.expiry, ks)
	}
	f.mu.Unlock()

	for _, ks := range stale {
		f.removeArtifacts(ks)
	}

	if len(stale) > 0 {
		logrus.Debugf("cache: cleaner removed %d lapsed entries", len(stale))
	}
}
