package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"albumtracker/internal/api"
	"albumtracker/internal/daemon"
	"albumtracker/internal/logging"
)

const serviceName = "AlbumTracker"

// maxFollowWait caps how long an Events call may block.
const maxFollowWait = 30 * time.Second

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	logger = logging.NewComponentLogger(logger, "ipc")

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		listener.Close()
		return nil, fmt.Errorf("restrict socket permissions: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: serverCtx}
	if err := rpcServer.RegisterName(serviceName, srv); err != nil {
		cancel()
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		logging.WarnWithContext(s.logger, "failed to remove socket", "ipc_socket_cleanup_failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the socket file manually before the next start"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

// call tags one mutating request with a fresh correlation id.
func (s *service) call(method string) context.Context {
	id := logging.NewCorrelationID()
	s.logger.Debug("ipc request",
		logging.String("method", method),
		logging.String(logging.FieldCorrelationID, id),
	)
	return logging.WithCorrelationID(s.ctx, id)
}

func (s *service) Start(_ StartRequest, resp *StartResponse) error {
	s.logger.Debug("daemon start requested")
	if err := s.daemon.Start(s.ctx); err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "daemon started"
	s.logger.Info("daemon started via IPC", logging.String(logging.FieldEventType, "daemon_start"))
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.logger.Info("daemon stopped via IPC", logging.String(logging.FieldEventType, "daemon_stop"))
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	*resp = StatusResponse{
		Running:       status.Running,
		PID:           status.PID,
		DatabasePath:  status.DatabasePath,
		LockPath:      status.LockFilePath,
		APIBind:       status.APIBind,
		Admin:         status.Admin,
		PaymentPolicy: status.PaymentPolicy,
		Counts:        status.Counts,
	}
	return nil
}

func (s *service) AlbumCreate(req AlbumCreateRequest, resp *AlbumResponse) error {
	ctx := s.call("AlbumCreate")
	album, err := s.daemon.Catalog().Create(ctx, req.Caller, req.Price, req.Title)
	if err != nil {
		return encodeError(err)
	}
	resp.Album = album
	return nil
}

func (s *service) AlbumPay(req AlbumPayRequest, resp *AlbumResponse) error {
	ctx := s.call("AlbumPay")
	album, err := s.daemon.Catalog().Pay(ctx, req.Payer, req.ID, req.Amount)
	if err != nil {
		return encodeError(err)
	}
	resp.Album = album
	return nil
}

func (s *service) Transfer(req TransferRequest, resp *AlbumResponse) error {
	ctx := s.call("Transfer")
	album, err := s.daemon.Catalog().Transfer(ctx, req.Payer, api.TransferRequest{To: req.To, Amount: req.Amount})
	if err != nil {
		return encodeError(err)
	}
	resp.Album = album
	return nil
}

func (s *service) AlbumDeliver(req AlbumDeliverRequest, resp *AlbumResponse) error {
	ctx := s.call("AlbumDeliver")
	album, err := s.daemon.Catalog().Deliver(ctx, req.Caller, req.ID)
	if err != nil {
		return encodeError(err)
	}
	resp.Album = album
	return nil
}

func (s *service) AlbumDescribe(req AlbumDescribeRequest, resp *AlbumResponse) error {
	album, err := s.daemon.Catalog().Describe(s.ctx, req.ID)
	if err != nil {
		return encodeError(err)
	}
	resp.Album = album
	return nil
}

func (s *service) AlbumList(req AlbumListRequest, resp *AlbumListResponse) error {
	albums, err := s.daemon.Catalog().List(s.ctx, req.States...)
	if err != nil {
		return encodeError(err)
	}
	resp.Albums = albums
	return nil
}

func (s *service) Balance(req BalanceRequest, resp *BalanceResponse) error {
	account, err := s.daemon.Catalog().Account(s.ctx, req.Address)
	if err != nil {
		return encodeError(err)
	}
	resp.Address = account.Address
	resp.Balance = account.Balance
	return nil
}

func (s *service) Events(req EventsRequest, resp *EventsResponse) error {
	ctx := s.ctx
	if req.Follow {
		wait := time.Duration(req.WaitMillis) * time.Millisecond
		if wait <= 0 || wait > maxFollowWait {
			wait = maxFollowWait
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, wait)
		defer cancel()
	}
	page, err := s.daemon.Events(ctx, req.Since, req.Limit, req.Follow)
	if err != nil {
		return encodeError(err)
	}
	resp.Events = page.Events
	resp.Next = page.Next
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	if err != nil {
		return err
	}
	resp.Sent = sent
	resp.Message = message
	return nil
}
