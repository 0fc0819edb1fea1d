package api

import (
	"context"
	"strconv"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	bookingQueryServiceName = "shareit.booking.v1.BookingQuery"

	bookingQueryGetBooking  = "/" + bookingQueryServiceName + "/GetBooking"
	bookingQueryListBooker  = "/" + bookingQueryServiceName + "/ListBookerBookings"
	bookingQueryListOwner   = "/" + bookingQueryServiceName + "/ListOwnerBookings"
	bookingQueryProjectItem = "/" + bookingQueryServiceName + "/ProjectItem"

	// userMetadataKey carries the acting user id on every call.
	userMetadataKey = "x-sharer-user-id"
)

type GetBookingRequest struct {
	BookingID int64 `json:"bookingId"`
}

type ListBookingsRequest struct {
	State string `json:"state"`
	From  int    `json:"from"`
	Size  int    `json:"size"`
}

type ListBookingsResponse struct {
	Bookings []*models.BookingDetails `json:"bookings"`
}

type ProjectItemRequest struct {
	ItemID int64 `json:"itemId"`
}

// BookingQueryServer is the read-only booking API.
type BookingQueryServer interface {
	GetBooking(ctx context.Context, req *GetBookingRequest) (*models.BookingDetails, error)
	ListBookerBookings(ctx context.Context, req *ListBookingsRequest) (*ListBookingsResponse, error)
	ListOwnerBookings(ctx context.Context, req *ListBookingsRequest) (*ListBookingsResponse, error)
	ProjectItem(ctx context.Context, req *ProjectItemRequest) (*models.Projection, error)
}

// BookingQueryService implements BookingQueryServer on top of the domain
// services.
type BookingQueryService struct {
	bookings domain.BookingService
	queries  domain.BookingQueryService
	items    domain.ItemService
	pageSize int
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewBookingQueryService(svc Services, defaultPageSize int, logger *zerolog.Logger) *BookingQueryService {
	l := logger.With().Str("component", "booking_query_rpc").Logger()
	if defaultPageSize <= 0 {
		defaultPageSize = models.DefaultPageSize
	}
	return &BookingQueryService{
		bookings: svc.Bookings,
		queries:  svc.Queries,
		items:    svc.Items,
		pageSize: defaultPageSize,
		logger:   &l,
		now:      time.Now,
	}
}

func (s *BookingQueryService) GetBooking(ctx context.Context, req *GetBookingRequest) (*models.BookingDetails, error) {
	actorID, err := actingUser(ctx)
	if err != nil {
		return nil, err
	}
	details, err := s.bookings.GetBooking(ctx, actorID, req.BookingID)
	if err != nil {
		return nil, grpcError(s.logger, err)
	}
	return details, nil
}

func (s *BookingQueryService) ListBookerBookings(ctx context.Context, req *ListBookingsRequest) (*ListBookingsResponse, error) {
	return s.list(ctx, req, s.queries.ListBookerBookings)
}

func (s *BookingQueryService) ListOwnerBookings(ctx context.Context, req *ListBookingsRequest) (*ListBookingsResponse, error) {
	return s.list(ctx, req, s.queries.ListOwnerBookings)
}

type listFunc func(ctx context.Context, userID int64, state string, from, size int) ([]*models.BookingDetails, error)

func (s *BookingQueryService) list(ctx context.Context, req *ListBookingsRequest, fn listFunc) (*ListBookingsResponse, error) {
	actorID, err := actingUser(ctx)
	if err != nil {
		return nil, err
	}
	state := req.State
	if state == "" {
		state = string(models.StateAll)
	}
	size := req.Size
	if size == 0 {
		size = s.pageSize
	}
	rows, err := fn(ctx, actorID, state, req.From, size)
	if err != nil {
		return nil, grpcError(s.logger, err)
	}
	return &ListBookingsResponse{Bookings: rows}, nil
}

// ProjectItem returns the last and next bookings of an item. Only the owner
// may ask.
func (s *BookingQueryService) ProjectItem(ctx context.Context, req *ProjectItemRequest) (*models.Projection, error) {
	actorID, err := actingUser(ctx)
	if err != nil {
		return nil, err
	}
	view, err := s.items.GetItem(ctx, actorID, req.ItemID, s.now())
	if err != nil {
		return nil, grpcError(s.logger, err)
	}
	if view.Role != models.RoleOwner {
		return nil, grpcError(s.logger, domain.ErrForbidden)
	}
	return &models.Projection{Last: view.Owner.LastBooking, Next: view.Owner.NextBooking}, nil
}

func actingUser(ctx context.Context) (int64, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	raw := first(md.Get(userMetadataKey))
	if raw == "" {
		return 0, status.Errorf(codes.InvalidArgument, "missing %s metadata", userMetadataKey)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, status.Errorf(codes.InvalidArgument, "invalid %s metadata: %q", userMetadataKey, raw)
	}
	return id, nil
}

func RegisterBookingQueryServer(s grpc.ServiceRegistrar, srv BookingQueryServer) {
	s.RegisterService(&bookingQueryServiceDesc, srv)
}

var bookingQueryServiceDesc = grpc.ServiceDesc{
	ServiceName: bookingQueryServiceName,
	HandlerType: (*BookingQueryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetBooking", Handler: getBookingHandler},
		{MethodName: "ListBookerBookings", Handler: listBookerBookingsHandler},
		{MethodName: "ListOwnerBookings", Handler: listOwnerBookingsHandler},
		{MethodName: "ProjectItem", Handler: projectItemHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func getBookingHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetBookingRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BookingQueryServer).GetBooking(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: bookingQueryGetBooking}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BookingQueryServer).GetBooking(ctx, req.(*GetBookingRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func listBookerBookingsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListBookingsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BookingQueryServer).ListBookerBookings(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: bookingQueryListBooker}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BookingQueryServer).ListBookerBookings(ctx, req.(*ListBookingsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func listOwnerBookingsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListBookingsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BookingQueryServer).ListOwnerBookings(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: bookingQueryListOwner}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BookingQueryServer).ListOwnerBookings(ctx, req.(*ListBookingsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func projectItemHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ProjectItemRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BookingQueryServer).ProjectItem(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: bookingQueryProjectItem}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BookingQueryServer).ProjectItem(ctx, req.(*ProjectItemRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// BookingQueryClient calls BookingQuery using the JSON codec.
type BookingQueryClient struct {
	cc grpc.ClientConnInterface
}

func NewBookingQueryClient(cc grpc.ClientConnInterface) *BookingQueryClient {
	return &BookingQueryClient{cc: cc}
}

// WithActingUser attaches the acting user id to outgoing calls.
func WithActingUser(ctx context.Context, userID int64) context.Context {
	return metadata.AppendToOutgoingContext(ctx, userMetadataKey, strconv.FormatInt(userID, 10))
}

func (c *BookingQueryClient) GetBooking(ctx context.Context, in *GetBookingRequest, opts ...grpc.CallOption) (*models.BookingDetails, error) {
	out := new(models.BookingDetails)
	if err := c.cc.Invoke(ctx, bookingQueryGetBooking, in, out, jsonCallOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BookingQueryClient) ListBookerBookings(ctx context.Context, in *ListBookingsRequest, opts ...grpc.CallOption) (*ListBookingsResponse, error) {
	out := new(ListBookingsResponse)
	if err := c.cc.Invoke(ctx, bookingQueryListBooker, in, out, jsonCallOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BookingQueryClient) ListOwnerBookings(ctx context.Context, in *ListBookingsRequest, opts ...grpc.CallOption) (*ListBookingsResponse, error) {
	out := new(ListBookingsResponse)
	if err := c.cc.Invoke(ctx, bookingQueryListOwner, in, out, jsonCallOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BookingQueryClient) ProjectItem(ctx context.Context, in *ProjectItemRequest, opts ...grpc.CallOption) (*models.Projection, error) {
	out := new(models.Projection)
	if err := c.cc.Invoke(ctx, bookingQueryProjectItem, in, out, jsonCallOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func jsonCallOptions(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(jsonCodecName)}, opts...)
}
