package adbsync

import (
	"time"

	cache "github.com/pmylund/go-cache"

	"adbsync/internal/cli"
)

// packageCachePurgeInterval mirrors the teacher's DirEntryCache purge
// schedule; the package-name cache is smaller and shorter-lived but the
// same purge cadence is fine.
const packageCachePurgeInterval = 5 * time.Minute

// packageCacheTTL bounds how long a `pm list packages -f` result is reused
// across listing bursts (spec SPEC_FULL §3, supplemented feature).
const packageCacheTTL = 10 * time.Second

// packageNameCache caches apk-path -> package-name maps per device serial,
// so repeated listings under /system/app or /data/app within the TTL don't
// each re-invoke `pm list packages -f`.
type packageNameCache struct {
	cache    *cache.Cache
	eventLog *cli.EventLog
}

func newPackageNameCache() *packageNameCache {
	return &packageNameCache{
		cache:    cache.New(packageCacheTTL, packageCachePurgeInterval),
		eventLog: cli.NewEventLog("PackageNameCache", ""),
	}
}

// get returns the cached apk-path -> package-name map for serial, if still
// fresh.
func (c *packageNameCache) get(serial string) (map[string]string, bool) {
	v, found := c.cache.Get(serial)
	if !found {
		c.eventLog.Debugf("get(%s) = miss", serial)
		return nil, false
	}
	c.eventLog.Debugf("get(%s) = hit", serial)
	return v.(map[string]string), true
}

func (c *packageNameCache) set(serial string, packages map[string]string) {
	c.cache.Set(serial, packages, cache.DefaultExpiration)
}

func (c *packageNameCache) delete(serial string) {
	c.cache.Delete(serial)
	c.eventLog.Debugf("delete(%s)", serial)
}
