package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/freightline/bookkeeper/internal/application/port"
	"github.com/freightline/bookkeeper/internal/domain"
	"github.com/freightline/bookkeeper/internal/domain/entity"
	"github.com/freightline/bookkeeper/internal/domain/valueobject"
)

// Charge kind discriminator for the booking_charges table.
const (
	chargeKindRevenue = "REVENUE"
	chargeKindCost    = "COST"
)

// BookingRepository implements port.BookingRepository. Save and Update
// replace the booking's charge rows wholesale; the entity's charge
// lists are the source of truth.
type BookingRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewBookingRepository creates a new booking repository.
func NewBookingRepository(db *sql.DB, logger *zap.Logger) port.BookingRepository {
	return &BookingRepository{db: db, logger: logger}
}

// Save inserts a booking and its charges.
func (r *BookingRepository) Save(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (
			uid, bl_reference, created_at, client_id, client_name, client_nif,
			pol_code, pol_name, pod_code, pod_name, vessel, containers, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	containers, err := json.Marshal(booking.Containers)
	if err != nil {
		return fmt.Errorf("failed to marshal containers: %w", err)
	}
	clientID, clientName, clientNIF := clientSnapshotColumns(booking.Client)
	polCode, polName := portColumns(booking.POL)
	podCode, podName := portColumns(booking.POD)

	_, err = getExecutor(ctx, r.db).ExecContext(ctx, query,
		booking.UID.String(),
		booking.BLReference,
		booking.CreatedAt,
		clientID,
		clientName,
		clientNIF,
		polCode,
		polName,
		podCode,
		podName,
		booking.Vessel,
		string(containers),
		string(booking.Status),
	)
	if err != nil {
		r.logger.Error("Failed to save booking", zap.String("bl_reference", booking.BLReference), zap.Error(err))
		return fmt.Errorf("failed to save booking: %w", err)
	}

	return r.replaceCharges(ctx, booking)
}

// Update rewrites a booking row and replaces its charges.
func (r *BookingRepository) Update(ctx context.Context, booking *entity.Booking) error {
	query := `
		UPDATE bookings
		SET bl_reference = ?, client_id = ?, client_name = ?, client_nif = ?,
			pol_code = ?, pol_name = ?, pod_code = ?, pod_name = ?,
			vessel = ?, containers = ?, status = ?
		WHERE uid = ?
	`

	containers, err := json.Marshal(booking.Containers)
	if err != nil {
		return fmt.Errorf("failed to marshal containers: %w", err)
	}
	clientID, clientName, clientNIF := clientSnapshotColumns(booking.Client)
	polCode, polName := portColumns(booking.POL)
	podCode, podName := portColumns(booking.POD)

	_, err = getExecutor(ctx, r.db).ExecContext(ctx, query,
		booking.BLReference,
		clientID,
		clientName,
		clientNIF,
		polCode,
		polName,
		podCode,
		podName,
		booking.Vessel,
		string(containers),
		string(booking.Status),
		booking.UID.String(),
	)
	if err != nil {
		r.logger.Error("Failed to update booking", zap.String("bl_reference", booking.BLReference), zap.Error(err))
		return fmt.Errorf("failed to update booking: %w", err)
	}

	return r.replaceCharges(ctx, booking)
}

// FindByID retrieves a booking by its BL reference, charges included.
func (r *BookingRepository) FindByID(ctx context.Context, blReference string) (*entity.Booking, error) {
	query := `
		SELECT uid, bl_reference, created_at, client_id, client_name, client_nif,
			pol_code, pol_name, pod_code, pod_name, vessel, containers, status
		FROM bookings
		WHERE bl_reference = ?
	`

	row := getExecutor(ctx, r.db).QueryRowContext(ctx, query, blReference)
	booking, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get booking", zap.String("bl_reference", blReference), zap.Error(err))
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	if err := r.loadCharges(ctx, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

// FindOrCreate returns the booking for a BL reference, creating a fresh
// pending booking when none exists yet.
func (r *BookingRepository) FindOrCreate(ctx context.Context, blReference string) (*entity.Booking, error) {
	booking, err := r.FindByID(ctx, blReference)
	if err != nil {
		return nil, err
	}
	if booking != nil {
		return booking, nil
	}

	booking = entity.NewBooking(blReference)
	if err := r.Save(ctx, booking); err != nil {
		return nil, err
	}
	r.logger.Info("Booking created", zap.String("bl_reference", blReference))
	return booking, nil
}

// ListAll retrieves every booking with charges loaded. Charges for all
// bookings come back in one query and are grouped in memory.
func (r *BookingRepository) ListAll(ctx context.Context) ([]*entity.Booking, error) {
	query := `
		SELECT uid, bl_reference, created_at, client_id, client_name, client_nif,
			pol_code, pol_name, pod_code, pod_name, vessel, containers, status
		FROM bookings
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list bookings", zap.Error(err))
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	byUID := make(map[string]*entity.Booking)
	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		byUID[booking.UID.String()] = booking
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	chargeQuery := `
		SELECT booking_uid, bl_reference, invoice_id, kind, charge_category,
			provider_type, container, description, amount
		FROM booking_charges
		ORDER BY id
	`
	chargeRows, err := getExecutor(ctx, r.db).QueryContext(ctx, chargeQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list booking charges: %w", err)
	}
	defer chargeRows.Close()

	for chargeRows.Next() {
		var bookingUID, kind string
		charge, err := scanBookingCharge(chargeRows, &bookingUID, &kind)
		if err != nil {
			return nil, err
		}
		booking, ok := byUID[bookingUID]
		if !ok {
			continue
		}
		if kind == chargeKindRevenue {
			booking.RevenueCharges = append(booking.RevenueCharges, charge)
		} else {
			booking.CostCharges = append(booking.CostCharges, charge)
		}
	}
	return bookings, chargeRows.Err()
}

// replaceCharges deletes and re-inserts the booking's charge rows so the
// stored lists always mirror the entity.
func (r *BookingRepository) replaceCharges(ctx context.Context, booking *entity.Booking) error {
	exec := getExecutor(ctx, r.db)

	if _, err := exec.ExecContext(ctx,
		`DELETE FROM booking_charges WHERE booking_uid = ?`, booking.UID.String()); err != nil {
		return fmt.Errorf("failed to clear booking charges: %w", err)
	}

	insert := `
		INSERT INTO booking_charges (
			booking_uid, bl_reference, invoice_id, kind, charge_category,
			provider_type, container, description, amount
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	writeAll := func(charges []valueobject.BookingCharge, kind string) error {
		for _, c := range charges {
			if _, err := exec.ExecContext(ctx, insert,
				booking.UID.String(),
				c.BookingID,
				c.InvoiceID.String(),
				kind,
				string(c.ChargeCategory),
				string(c.ProviderType),
				c.Container,
				c.Description,
				c.Amount.String(),
			); err != nil {
				return fmt.Errorf("failed to save booking charge: %w", err)
			}
		}
		return nil
	}

	if err := writeAll(booking.RevenueCharges, chargeKindRevenue); err != nil {
		return err
	}
	return writeAll(booking.CostCharges, chargeKindCost)
}

// loadCharges attaches a single booking's charges.
func (r *BookingRepository) loadCharges(ctx context.Context, booking *entity.Booking) error {
	query := `
		SELECT booking_uid, bl_reference, invoice_id, kind, charge_category,
			provider_type, container, description, amount
		FROM booking_charges
		WHERE booking_uid = ?
		ORDER BY id
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, booking.UID.String())
	if err != nil {
		return fmt.Errorf("failed to load booking charges: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bookingUID, kind string
		charge, err := scanBookingCharge(rows, &bookingUID, &kind)
		if err != nil {
			return err
		}
		if kind == chargeKindRevenue {
			booking.RevenueCharges = append(booking.RevenueCharges, charge)
		} else {
			booking.CostCharges = append(booking.CostCharges, charge)
		}
	}
	return rows.Err()
}

func scanBooking(row scanner) (*entity.Booking, error) {
	var booking entity.Booking
	var uid, containers, status string
	var clientID, clientName, clientNIF sql.NullString
	var polCode, polName, podCode, podName sql.NullString

	err := row.Scan(
		&uid,
		&booking.BLReference,
		&booking.CreatedAt,
		&clientID,
		&clientName,
		&clientNIF,
		&polCode,
		&polName,
		&podCode,
		&podName,
		&booking.Vessel,
		&containers,
		&status,
	)
	if err != nil {
		return nil, err
	}

	if booking.UID, err = parseUUID(uid); err != nil {
		return nil, err
	}
	booking.Status = domain.BookingStatus(status)

	if containers != "" {
		if err := json.Unmarshal([]byte(containers), &booking.Containers); err != nil {
			return nil, fmt.Errorf("failed to unmarshal containers: %w", err)
		}
	}
	if clientID.Valid && clientID.String != "" {
		id, err := parseUUID(clientID.String)
		if err != nil {
			return nil, err
		}
		booking.Client = &valueobject.ClientInfo{
			ClientID: id,
			Name:     clientName.String,
			NIF:      clientNIF.String,
		}
	}
	if polCode.Valid && polCode.String != "" {
		booking.POL = &valueobject.Port{Code: polCode.String, Name: polName.String}
	}
	if podCode.Valid && podCode.String != "" {
		booking.POD = &valueobject.Port{Code: podCode.String, Name: podName.String}
	}
	return &booking, nil
}

func scanBookingCharge(row scanner, bookingUID, kind *string) (valueobject.BookingCharge, error) {
	var charge valueobject.BookingCharge
	var invoiceID, category, providerType, amount string

	err := row.Scan(
		bookingUID,
		&charge.BookingID,
		&invoiceID,
		kind,
		&category,
		&providerType,
		&charge.Container,
		&charge.Description,
		&amount,
	)
	if err != nil {
		return charge, fmt.Errorf("failed to scan booking charge: %w", err)
	}

	if charge.InvoiceID, err = parseUUID(invoiceID); err != nil {
		return charge, err
	}
	charge.ChargeCategory = domain.ChargeCategory(category)
	charge.ProviderType = domain.ProviderType(providerType)
	if charge.Amount, err = valueobject.NewMoneyFromString(amount); err != nil {
		return charge, err
	}
	return charge, nil
}

func clientSnapshotColumns(client *valueobject.ClientInfo) (id, name, nif interface{}) {
	if client == nil {
		return nil, nil, nil
	}
	return client.ClientID.String(), client.Name, client.NIF
}

func portColumns(p *valueobject.Port) (code, name interface{}) {
	if p == nil {
		return nil, nil
	}
	return p.Code, p.Name
}

// Verify interface compliance
var _ port.BookingRepository = (*BookingRepository)(nil)
