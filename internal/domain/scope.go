package domain

import (
	"database/sql/driver"
	"fmt"
	"strconv"
)

// ServiceScope says which services a calendar override or blackout applies
// to. A NULL service_id column maps to AllServices.
type ServiceScope struct {
	ServiceID   int64
	AllServices bool
}

func ScopeAllServices() ServiceScope {
	return ServiceScope{AllServices: true}
}

func ScopeService(serviceID int64) ServiceScope {
	return ServiceScope{ServiceID: serviceID}
}

func (s ServiceScope) AppliesTo(serviceID int64) bool {
	return s.AllServices || s.ServiceID == serviceID
}

func (s ServiceScope) String() string {
	if s.AllServices {
		return "all"
	}
	return strconv.FormatInt(s.ServiceID, 10)
}

func (s ServiceScope) Value() (driver.Value, error) {
	if s.AllServices {
		return nil, nil
	}
	return s.ServiceID, nil
}

func (s *ServiceScope) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s = ScopeAllServices()
	case int64:
		*s = ScopeService(v)
	case int32:
		*s = ScopeService(int64(v))
	case []byte:
		id, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return err
		}
		*s = ScopeService(id)
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		*s = ScopeService(id)
	default:
		return fmt.Errorf("cannot scan %T into ServiceScope", src)
	}
	return nil
}
