package control

import "github.com/anno-git/hokuyohub/internal/hubconfig"

// GetDBSCAN returns the current DBSCAN configuration (spec §6.3 GET /dbscan).
func (a *Adapter) GetDBSCAN() hubconfig.DBSCANConfig {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg.DBSCAN
}

// PutDBSCAN validates and applies a new DBSCAN configuration, pushes it
// to the clusterer, and broadcasts the update (spec §6.3 PUT /dbscan,
// whose bounds are enforced by hubconfig.ValidateDBSCAN).
func (a *Adapter) PutDBSCAN(cfg hubconfig.DBSCANConfig) error {
	if err := hubconfig.ValidateDBSCAN(cfg); err != nil {
		return err
	}

	a.mu.Lock()
	a.cfg.DBSCAN = cfg
	a.mu.Unlock()

	a.rebuildDBSCAN()
	a.broadcastDBSCAN("dbscan.config")
	a.broadcastDBSCAN("dbscan.updated")
	return nil
}
