package services

import (
	"context"
	"strconv"
	"time"

	"github.com/opentracing/opentracing-go"
)

const (
	DeviceListPage    = 1
	DeviceListLimit   = 9999
	DeviceListTimeout = 10 * time.Second

	DefaultDevicePage  = 1
	DefaultDeviceLimit = 10

	devicePath = "/device"
)

// DeviceID identifies a device. It is placed in the request path verbatim.
type DeviceID string

func NumericDeviceID(id int64) DeviceID {
	return DeviceID(strconv.FormatInt(id, 10))
}

func (id DeviceID) String() string {
	return string(id)
}

// The DeviceAPI interface covers the read endpoints of the device backend
type DeviceAPI interface {
	DeviceList(ctx context.Context) (*Response, error)
	DeviceByID(ctx context.Context, id DeviceID) (*Response, error)
	DevicePage(ctx context.Context, page int, limit int) (*Response, error)
}

// DeviceAPIImpl hands every call straight to Client. Responses and errors are
// returned as the client produced them.
type DeviceAPIImpl struct {
	Client Requester
}

var _ DeviceAPI = (*DeviceAPIImpl)(nil)

// DeviceList asks for the first page with a limit large enough to hold every
// device.
func (api *DeviceAPIImpl) DeviceList(ctx context.Context) (*Response, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DeviceAPI.DeviceList()")
	defer span.Finish()

	return api.Client.Get(ctx, devicePath,
		WithParams(map[string]interface{}{
			"page":  DeviceListPage,
			"limit": DeviceListLimit,
		}),
		WithTimeout(DeviceListTimeout),
	)
}

func (api *DeviceAPIImpl) DeviceByID(ctx context.Context, id DeviceID) (*Response, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DeviceAPI.DeviceByID()")
	defer span.Finish()

	span.SetTag("device_id", string(id))

	return api.Client.Get(ctx, devicePath+"/"+string(id))
}

// DevicePage requests a single page. Non-positive arguments fall back to page 1
// and 10 devices per page.
func (api *DeviceAPIImpl) DevicePage(ctx context.Context, page int, limit int) (*Response, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DeviceAPI.DevicePage()")
	defer span.Finish()

	if page <= 0 {
		page = DefaultDevicePage
	}

	if limit <= 0 {
		limit = DefaultDeviceLimit
	}

	return api.Client.Get(ctx, devicePath, WithParams(map[string]interface{}{
		"page":  page,
		"limit": limit,
	}))
}
