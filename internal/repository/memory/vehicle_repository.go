package memory

import (
	"sort"
	"sync"
	"time"

	"donkey-remote-be/internal/entity"
	"donkey-remote-be/internal/pkg/logger"
	"donkey-remote-be/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

var _ contract.VehicleRepository = (*VehicleRepository)(nil)

type VehicleRepository struct {
	// mu makes get-or-create atomic; vehicle state has its own lock.
	mu      sync.Mutex
	cache   *cache.Cache
	idleTTL time.Duration
}

// NewVehicleRepository creates the registry. An idleTTL of zero keeps every
// vehicle for the process lifetime; a positive value evicts vehicles that
// have not been touched by GetOrCreate for that long.
func NewVehicleRepository(idleTTL time.Duration, log logger.ILogger) *VehicleRepository {
	expiration := cache.NoExpiration
	var cleanup time.Duration
	if idleTTL > 0 {
		expiration = idleTTL
		cleanup = idleTTL
		if cleanup > time.Minute {
			cleanup = time.Minute
		}
	}

	c := cache.New(expiration, cleanup)
	c.OnEvicted(func(id string, _ interface{}) {
		log.Info("VehicleRegistry", "Vehicle evicted after idle timeout", map[string]interface{}{"vehicle_id": id})
	})

	return &VehicleRepository{
		cache:   c,
		idleTTL: idleTTL,
	}
}

func (r *VehicleRepository) GetOrCreate(id string) *entity.Vehicle {
	r.mu.Lock()
	defer r.mu.Unlock()

	if x, found := r.cache.Get(id); found {
		v := x.(*entity.Vehicle)
		if r.idleTTL > 0 {
			r.cache.Set(id, v, cache.DefaultExpiration)
		}
		return v
	}

	v := entity.NewVehicle(id)
	r.cache.Set(id, v, cache.DefaultExpiration)
	return v
}

func (r *VehicleRepository) Lookup(id string) (*entity.Vehicle, bool) {
	if x, found := r.cache.Get(id); found {
		return x.(*entity.Vehicle), true
	}
	return nil, false
}

func (r *VehicleRepository) List() []*entity.Vehicle {
	items := r.cache.Items()
	vehicles := make([]*entity.Vehicle, 0, len(items))
	for _, item := range items {
		vehicles = append(vehicles, item.Object.(*entity.Vehicle))
	}
	sort.Slice(vehicles, func(i, j int) bool { return vehicles[i].Id < vehicles[j].Id })
	return vehicles
}
