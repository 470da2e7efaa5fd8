package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/referdby/internal/models"
)

// Converter converts money between currencies.
type Converter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) (Conversion, error)
}

// ReceiptUpload is a receipt photo attached to a settlement.
type ReceiptUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// BillInput settles a referral-track activity.
type BillInput struct {
	ActivityID uuid.UUID
	Amount     decimal.Decimal
	Currency   string
	Receipt    *ReceiptUpload
	Notes      string
}

// RedemptionInput settles a redemption-track activity.
type RedemptionInput struct {
	ActivityID uuid.UUID
	BillTotal  decimal.Decimal
	Currency   string
	Points     decimal.Decimal
	IsTakeaway *bool
	Receipt    *ReceiptUpload
	Notes      string
}

// ReprocessInput recomputes a pending activity. Amount, when set, replaces
// the stored amount_spent.
type ReprocessInput struct {
	ActivityID uuid.UUID
	Amount     *decimal.Decimal
	Currency   string
}

// DeductionInput is an administrative point correction.
type DeductionInput struct {
	ProfileID    uuid.UUID
	RestaurantID *uuid.UUID
	Points       decimal.Decimal
	Reason       string
}

// SettlementResult is returned by a successful settlement.
type SettlementResult struct {
	Activity             *models.Activity     `json:"activity"`
	Points               PointsResult         `json:"points"`
	Distribution         []*DistributionEntry `json:"distribution,omitempty"`
	Skipped              []SkippedRole        `json:"skipped,omitempty"`
	HomeCurrency         string               `json:"home_currency,omitempty"`
	HomeCurrencyValue    decimal.Decimal      `json:"home_currency_value"`
	RestaurantBalanceNow decimal.Decimal      `json:"restaurant_balance"`
}

// Processor applies settlements to the ledger in one transaction each.
type Processor struct {
	db          *gorm.DB
	calc        *PointsCalculator
	currency    Converter
	eligibility *EligibilityService
	schedule    *ScheduleService
	blobs       BlobStore
	balances    *BalanceCache
	now         func() time.Time
}

// ProcessorDeps groups Processor collaborators.
type ProcessorDeps struct {
	Calculator  *PointsCalculator
	Currency    Converter
	Eligibility *EligibilityService
	Schedule    *ScheduleService
	Blobs       BlobStore
	Balances    *BalanceCache
}

// NewProcessor constructs a Processor.
func NewProcessor(db *gorm.DB, deps ProcessorDeps, now func() time.Time) *Processor {
	if now == nil {
		now = time.Now
	}
	return &Processor{
		db:          db,
		calc:        deps.Calculator,
		currency:    deps.Currency,
		eligibility: deps.Eligibility,
		schedule:    deps.Schedule,
		blobs:       deps.Blobs,
		balances:    deps.Balances,
		now:         now,
	}
}

// ProcessBill settles a bill: it credits the customer and any referrers and
// debits the restaurant by the same total.
func (p *Processor) ProcessBill(ctx context.Context, actor Actor, in BillInput) (result *SettlementResult, err error) {
	defer func() { Metrics().ObserveSettlement("bill", err) }()

	if !in.Amount.IsPositive() {
		return nil, wrapf(ErrInvalidAmount, "amount %s", in.Amount.String())
	}
	db := p.db.WithContext(ctx)
	activity, restaurant, err := p.loadPending(db, actor, in.ActivityID, models.ReferralPendingStates)
	if err != nil {
		return nil, err
	}
	if restaurant.RequireBillPhotos && in.Receipt == nil {
		return nil, ErrPhotoRequired
	}
	customer, err := loadProfile(db, activity.UserID)
	if err != nil {
		return nil, err
	}

	billCurrency := NormalizeCurrency(in.Currency)
	if billCurrency == "" {
		billCurrency = NormalizeCurrency(restaurant.Currency)
	}
	spent, err := p.currency.Convert(ctx, in.Amount, billCurrency, restaurant.Currency)
	if err != nil {
		return nil, err
	}
	inPoints, err := p.currency.Convert(ctx, spent.Amount, restaurant.Currency, p.calc.Currency())
	if err != nil {
		return nil, err
	}
	points := p.calc.CalculatePoints(inPoints.Amount).ForParticipants(participantsOf(activity))
	home, err := p.currency.Convert(ctx, points.CustomerPoints, p.calc.Currency(), homeCurrency(customer, restaurant))
	if err != nil {
		return nil, err
	}
	deduction, err := p.currency.Convert(ctx, points.RestaurantDeduction, p.calc.Currency(), restaurant.Currency)
	if err != nil {
		return nil, err
	}

	photoURL, err := p.storeReceipt(ctx, restaurant.ID, in.Receipt)
	if err != nil {
		return nil, err
	}

	var dist *Distribution
	now := p.now()
	err = db.Transaction(func(tx *gorm.DB) error {
		var err error
		dist, err = CreatePointsDistributionMap(ctx, NewBalanceLookup(tx), DistributionInput{Activity: activity, Points: points})
		if err != nil {
			return err
		}
		undistributed := dist.Undistributed()
		debitAmount := RoundMoney(dist.Total().Mul(deduction.Rate), restaurant.Currency)

		updates := map[string]interface{}{
			"type":                        models.StateReferralProcessed,
			"is_active":                   false,
			"amount_spent":                spent.Amount,
			"currency":                    NormalizeCurrency(restaurant.Currency),
			"conversion_rate":             inPoints.Rate,
			"customer_points":             points.CustomerPoints,
			"referrer_points":             points.ReferrerPoints,
			"restaurant_recruiter_points": points.RestaurantRecruiterPoints,
			"app_referrer_points":         points.AppReferrerPoints,
			"restaurant_deduction":        points.RestaurantDeduction,
			"restaurant_deduction_amount": debitAmount,
			"undistributed_points":        undistributed,
			"initial_points_balance":      dist.Entries[activity.UserID].InitialBalance,
			"receipt_photo":               photoURL,
			"notes":                       in.Notes,
			"processed_by_id":             actor.ID,
			"processed_at":                now,
			"updated_at":                  now,
		}
		if err := transitionActivity(tx, activity.ID, models.ReferralPendingStates, updates); err != nil {
			return err
		}

		for _, entry := range dist.Ordered() {
			if err := adjustProfilePoints(tx, entry.UserID, entry.Points); err != nil {
				return err
			}
		}
		if err := adjustRestaurantPoints(tx, restaurant.ID, dist.Total().Neg()); err != nil {
			return err
		}

		events := []models.AuditEvent{auditEvent(activity.ID, actor.ID, "bill_processed", map[string]interface{}{
			"amount_spent": spent.Amount,
			"currency":     restaurant.Currency,
			"points":       points,
			"distribution": dist.Ordered(),
		})}
		for _, skipped := range dist.Skipped {
			events = append(events, auditEvent(activity.ID, actor.ID, "referrer_missing", skipped))
		}
		if err := tx.Create(&events).Error; err != nil {
			return fmt.Errorf("write audit events: %w", err)
		}
		return nil
	})
	if err != nil {
		p.logAbort("bill", activity.ID, photoURL, err)
		return nil, err
	}

	affected := make([]uuid.UUID, 0, len(dist.Entries))
	for _, entry := range dist.Ordered() {
		affected = append(affected, entry.UserID)
	}
	p.balances.Delete(affected...)
	observeDistribution(points, dist)
	for _, skipped := range dist.Skipped {
		log.Printf("[Settlement] activity %s: %s %s has no profile, %s points retained by restaurant",
			activity.ID, skipped.Role, skipped.UserID, skipped.Points)
	}
	log.Printf("[Settlement] bill %s processed: spent %s %s, deduction %s", activity.ID, spent.Amount, restaurant.Currency, dist.Total())

	updated, err := loadActivity(db, activity.ID)
	if err != nil {
		return nil, err
	}
	refreshed, err := loadRestaurant(db, restaurant.ID)
	if err != nil {
		return nil, err
	}
	return &SettlementResult{
		Activity:             updated,
		Points:               points,
		Distribution:         dist.Ordered(),
		Skipped:              dist.Skipped,
		HomeCurrency:         homeCurrency(customer, restaurant),
		HomeCurrencyValue:    home.Amount,
		RestaurantBalanceNow: refreshed.CurrentPoints,
	}, nil
}

// ProcessRedemption spends a customer's points against a bill and credits
// them to the restaurant.
func (p *Processor) ProcessRedemption(ctx context.Context, actor Actor, in RedemptionInput) (result *SettlementResult, err error) {
	defer func() { Metrics().ObserveSettlement("redemption", err) }()

	if !in.BillTotal.IsPositive() {
		return nil, wrapf(ErrInvalidAmount, "bill total %s", in.BillTotal.String())
	}
	if !in.Points.IsPositive() || !in.Points.Equal(in.Points.Truncate(0)) {
		return nil, wrapf(ErrInvalidPoints, "points %s", in.Points.String())
	}
	db := p.db.WithContext(ctx)
	activity, restaurant, err := p.loadPending(db, actor, in.ActivityID, models.RedeemPendingStates)
	if err != nil {
		return nil, err
	}
	if restaurant.RequireBillPhotos && in.Receipt == nil {
		return nil, ErrPhotoRequired
	}
	isTakeaway := activity.IsTakeaway
	if in.IsTakeaway != nil {
		isTakeaway = *in.IsTakeaway
	}
	if !p.schedule.isOpen(restaurant, isTakeaway) {
		return nil, ErrOutsideRedemptionHours
	}
	eligibility, err := p.eligibility.CheckRedemptionEligibility(ctx, activity.UserID, restaurant.ID)
	if err != nil {
		return nil, err
	}
	if !eligibility.Eligible {
		return nil, &EligibilityError{Reason: eligibility.Message}
	}
	customer, err := loadProfile(db, activity.UserID)
	if err != nil {
		return nil, err
	}

	bill, err := ConvertRedemptionBill(ctx, p.currency, restaurant, in.BillTotal, in.Currency, p.calc.Currency())
	if err != nil {
		return nil, err
	}
	if warning := CheckRedemptionCap(bill, in.Points, restaurant, customer.CurrentPoints); warning != "" {
		return nil, &RedemptionWarningError{Warning: warning}
	}
	discount, err := p.currency.Convert(ctx, in.Points, p.calc.Currency(), restaurant.Currency)
	if err != nil {
		return nil, err
	}
	home, err := p.currency.Convert(ctx, in.Points, p.calc.Currency(), homeCurrency(customer, restaurant))
	if err != nil {
		return nil, err
	}

	photoURL, err := p.storeReceipt(ctx, restaurant.ID, in.Receipt)
	if err != nil {
		return nil, err
	}

	now := p.now()
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := lockPending(tx, activity.ID, models.RedeemPendingStates); err != nil {
			return err
		}
		var current models.Profile
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&current, "id = ?", customer.ID).Error; err != nil {
			return fmt.Errorf("lock customer: %w", err)
		}
		recheck, err := p.eligibility.check(tx, customer.ID, restaurant.ID)
		if err != nil {
			return err
		}
		if !recheck.Eligible {
			return &EligibilityError{Reason: recheck.Message}
		}
		if warning := CheckRedemptionCap(bill, in.Points, restaurant, current.CurrentPoints); warning != "" {
			return &RedemptionWarningError{Warning: warning}
		}

		updates := map[string]interface{}{
			"type":                        models.StateRedeemProcessed,
			"activity_type":               models.KindRollTokenProcessed,
			"is_active":                   false,
			"is_takeaway":                 isTakeaway,
			"amount_spent":                bill.Spent.Amount,
			"currency":                    NormalizeCurrency(restaurant.Currency),
			"conversion_rate":             bill.InPoints.Rate,
			"points_redeemed":             in.Points.IntPart(),
			"customer_points":             in.Points.Neg(),
			"restaurant_deduction":        in.Points.Neg(),
			"restaurant_deduction_amount": discount.Amount,
			"initial_points_balance":      current.CurrentPoints,
			"receipt_photo":               photoURL,
			"notes":                       in.Notes,
			"processed_by_id":             actor.ID,
			"processed_at":                now,
			"updated_at":                  now,
		}
		if err := transitionActivity(tx, activity.ID, models.RedeemPendingStates, updates); err != nil {
			return err
		}
		if err := spendProfilePoints(tx, customer.ID, in.Points); err != nil {
			return err
		}
		if err := adjustRestaurantPoints(tx, restaurant.ID, in.Points); err != nil {
			return err
		}
		event := auditEvent(activity.ID, actor.ID, "redemption_processed", map[string]interface{}{
			"points":      in.Points,
			"bill_total":  bill.Spent.Amount,
			"currency":    restaurant.Currency,
			"discount":    discount.Amount,
			"is_takeaway": isTakeaway,
		})
		if err := tx.Create(&event).Error; err != nil {
			return fmt.Errorf("write audit event: %w", err)
		}
		return nil
	})
	if err != nil {
		p.logAbort("redemption", activity.ID, photoURL, err)
		return nil, err
	}

	p.balances.Delete(customer.ID)
	log.Printf("[Settlement] redemption %s processed: %s points off %s %s", activity.ID, in.Points, bill.Spent.Amount, restaurant.Currency)

	updated, err := loadActivity(db, activity.ID)
	if err != nil {
		return nil, err
	}
	refreshed, err := loadRestaurant(db, restaurant.ID)
	if err != nil {
		return nil, err
	}
	return &SettlementResult{
		Activity: updated,
		Points: PointsResult{
			CustomerPoints:            in.Points.Neg(),
			ReferrerPoints:            decimal.Zero,
			RestaurantRecruiterPoints: decimal.Zero,
			AppReferrerPoints:         decimal.Zero,
			RestaurantDeduction:       in.Points.Neg(),
		},
		HomeCurrency:         homeCurrency(customer, restaurant),
		HomeCurrencyValue:    home.Amount,
		RestaurantBalanceNow: refreshed.CurrentPoints,
	}, nil
}

// Reprocess recomputes the point fields of a pending referral activity
// without touching any balance. The stored conversion rate is reused so the
// same amount always yields the same fields.
func (p *Processor) Reprocess(ctx context.Context, actor Actor, in ReprocessInput) (*models.Activity, error) {
	if err := actor.AuthorizeAdjust(); err != nil {
		return nil, err
	}
	db := p.db.WithContext(ctx)
	activity, restaurant, err := p.loadPending(db, actor, in.ActivityID, models.ReferralPendingStates)
	if err != nil {
		return nil, err
	}

	amount := activity.AmountSpent
	rate := activity.ConversionRate
	if in.Amount != nil {
		if !in.Amount.IsPositive() {
			return nil, wrapf(ErrInvalidAmount, "amount %s", in.Amount.String())
		}
		billCurrency := NormalizeCurrency(in.Currency)
		if billCurrency == "" {
			billCurrency = NormalizeCurrency(restaurant.Currency)
		}
		spent, err := p.currency.Convert(ctx, *in.Amount, billCurrency, restaurant.Currency)
		if err != nil {
			return nil, err
		}
		if !spent.Amount.Equal(amount) {
			amount = spent.Amount
			rate = decimal.Zero
		}
	}
	if !amount.IsPositive() {
		return nil, wrapf(ErrInvalidAmount, "activity %s has no amount_spent", activity.ID)
	}
	if !rate.IsPositive() {
		conv, err := p.currency.Convert(ctx, decimal.NewFromInt(1), restaurant.Currency, p.calc.Currency())
		if err != nil {
			return nil, err
		}
		rate = conv.Rate
	}

	inPoints := RoundMoney(amount.Mul(rate), p.calc.Currency())
	points := p.calc.CalculatePoints(inPoints).ForParticipants(participantsOf(activity))
	updates := map[string]interface{}{
		"amount_spent":                amount,
		"currency":                    NormalizeCurrency(restaurant.Currency),
		"conversion_rate":             rate,
		"customer_points":             points.CustomerPoints,
		"referrer_points":             points.ReferrerPoints,
		"restaurant_recruiter_points": points.RestaurantRecruiterPoints,
		"app_referrer_points":         points.AppReferrerPoints,
		"restaurant_deduction":        points.RestaurantDeduction,
		"updated_at":                  p.now(),
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Activity{}).
			Where("id = ? AND type IN ? AND is_active = ?", activity.ID, models.ReferralPendingStates, true).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("reprocess activity: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return wrapf(ErrAlreadyProcessed, "activity %s", activity.ID)
		}
		event := auditEvent(activity.ID, actor.ID, "activity_reprocessed", points)
		return tx.Create(&event).Error
	})
	if err != nil {
		return nil, err
	}
	return loadActivity(db, activity.ID)
}

// DeductPoints removes points from a profile as an administrative correction
// and records a terminal points_deducted activity.
func (p *Processor) DeductPoints(ctx context.Context, actor Actor, in DeductionInput) (activity *models.Activity, err error) {
	defer func() { Metrics().ObserveSettlement("deduction", err) }()

	if err := actor.AuthorizeAdjust(); err != nil {
		return nil, err
	}
	if !in.Points.IsPositive() {
		return nil, wrapf(ErrInvalidPoints, "points %s", in.Points.String())
	}
	db := p.db.WithContext(ctx)
	profile, err := loadProfile(db, in.ProfileID)
	if err != nil {
		return nil, err
	}
	restaurantID := uuid.Nil
	if in.RestaurantID != nil {
		if _, err := loadRestaurant(db, *in.RestaurantID); err != nil {
			return nil, err
		}
		restaurantID = *in.RestaurantID
	}

	now := p.now()
	processedBy := actor.ID
	activity = &models.Activity{
		Type:           models.StatePointsDeducted,
		ActivityType:   models.KindPointsAdjustment,
		ConversionRate: decimal.Zero,
		CustomerPoints: in.Points.Neg(),
		UserID:         profile.ID,
		RestaurantID:   restaurantID,
		ProcessedByID:  &processedBy,
		ProcessedAt:    &now,
		Notes:          in.Reason,
		IsActive:       false,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		current, err := loadProfile(tx, profile.ID)
		if err != nil {
			return err
		}
		activity.InitialPointsBalance = current.CurrentPoints
		if err := tx.Create(activity).Error; err != nil {
			return fmt.Errorf("create deduction: %w", err)
		}
		if err := spendProfilePoints(tx, profile.ID, in.Points); err != nil {
			return err
		}
		event := auditEvent(activity.ID, actor.ID, "points_deducted", map[string]interface{}{
			"points": in.Points,
			"reason": in.Reason,
		})
		return tx.Create(&event).Error
	})
	if err != nil {
		return nil, err
	}
	p.balances.Delete(profile.ID)
	log.Printf("[Settlement] deducted %s points from %s: %s", in.Points, profile.ID, in.Reason)
	return activity, nil
}

// loadPending loads an activity that may still be settled on the given track.
func (p *Processor) loadPending(db *gorm.DB, actor Actor, activityID uuid.UUID, pending []models.ActivityState) (*models.Activity, *models.Restaurant, error) {
	activity, err := loadActivity(db, activityID)
	if err != nil {
		return nil, nil, err
	}
	if err := actor.AuthorizeSettlement(activity.RestaurantID); err != nil {
		return nil, nil, err
	}
	if !activity.IsActive || activity.Type.IsTerminal() {
		return nil, nil, wrapf(ErrAlreadyProcessed, "activity %s is %s", activity.ID, activity.Type)
	}
	if !slices.Contains(pending, activity.Type) {
		return nil, nil, wrapf(ErrWrongTrack, "activity %s is %s", activity.ID, activity.Type)
	}
	if activity.ExpiresAt != nil && !p.now().Before(*activity.ExpiresAt) {
		return nil, nil, wrapf(ErrActivityExpired, "activity %s", activity.ID)
	}
	restaurant, err := loadRestaurant(db, activity.RestaurantID)
	if err != nil {
		return nil, nil, err
	}
	return activity, restaurant, nil
}

func (p *Processor) storeReceipt(ctx context.Context, restaurantID uuid.UUID, receipt *ReceiptUpload) (string, error) {
	if receipt == nil {
		return "", nil
	}
	if p.blobs == nil {
		return "", wrapf(ErrUploadFailed, "no blob store configured")
	}
	key := ReceiptPath(restaurantID, p.now(), receipt.Filename)
	url, err := p.blobs.Upload(ctx, key, receipt.Body, receipt.Size, receipt.ContentType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return url, nil
}

func (p *Processor) logAbort(kind string, activityID uuid.UUID, photoURL string, err error) {
	if errors.Is(err, ErrAlreadyProcessed) {
		log.Printf("[Settlement] %s %s already processed", kind, activityID)
	} else {
		log.Printf("[Settlement] %s %s failed: %v", kind, activityID, err)
	}
	if photoURL != "" {
		log.Printf("[Settlement] %s %s left unreferenced receipt %s", kind, activityID, photoURL)
	}
}

// lockPending locks the activity row and fails with ErrAlreadyProcessed once
// another settlement has moved it out of pending.
func lockPending(tx *gorm.DB, id uuid.UUID, pending []models.ActivityState) error {
	var row models.Activity
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "type", "is_active").
		First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return wrapf(ErrActivityNotFound, "activity %s", id)
		}
		return fmt.Errorf("lock activity: %w", err)
	}
	if !row.IsActive || !slices.Contains(pending, row.Type) {
		return wrapf(ErrAlreadyProcessed, "activity %s is %s", id, row.Type)
	}
	return nil
}

// transitionActivity writes updates only while the activity is still active
// in one of the pending states.
func transitionActivity(tx *gorm.DB, id uuid.UUID, pending []models.ActivityState, updates map[string]interface{}) error {
	res := tx.Model(&models.Activity{}).
		Where("id = ? AND type IN ? AND is_active = ?", id, pending, true).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("update activity: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return wrapf(ErrAlreadyProcessed, "activity %s", id)
	}
	return nil
}

func adjustProfilePoints(tx *gorm.DB, id uuid.UUID, delta decimal.Decimal) error {
	res := tx.Model(&models.Profile{}).
		Where("id = ?", id).
		Update("current_points", gorm.Expr("current_points + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("credit profile %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return wrapf(ErrProfileNotFound, "profile %s", id)
	}
	return nil
}

func spendProfilePoints(tx *gorm.DB, id uuid.UUID, points decimal.Decimal) error {
	res := tx.Model(&models.Profile{}).
		Where("id = ? AND current_points >= ?", id, points).
		Update("current_points", gorm.Expr("current_points - ?", points))
	if res.Error != nil {
		return fmt.Errorf("debit profile %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return wrapf(ErrInsufficientPoints, "profile %s", id)
	}
	return nil
}

func adjustRestaurantPoints(tx *gorm.DB, id uuid.UUID, delta decimal.Decimal) error {
	res := tx.Model(&models.Restaurant{}).
		Where("id = ?", id).
		Update("current_points", gorm.Expr("current_points + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("adjust restaurant %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return wrapf(ErrRestaurantNotFound, "restaurant %s", id)
	}
	return nil
}

func observeDistribution(points PointsResult, dist *Distribution) {
	shares := map[DistributionRole]decimal.Decimal{
		RoleTagCustomer:            points.CustomerPoints,
		RoleTagReferrer:            points.ReferrerPoints,
		RoleTagRestaurantRecruiter: points.RestaurantRecruiterPoints,
		RoleTagAppReferrer:         points.AppReferrerPoints,
	}
	for _, skipped := range dist.Skipped {
		delete(shares, skipped.Role)
	}
	for role, value := range shares {
		Metrics().ObservePoints(role, value)
	}
}

func participantsOf(activity *models.Activity) Participants {
	present := func(id *uuid.UUID) bool { return id != nil && *id != uuid.Nil }
	return Participants{
		Referrer:            present(activity.UserReferrerID),
		RestaurantRecruiter: present(activity.RestaurantReferrerID),
		AppReferrer:         present(activity.AppReferrerID),
	}
}

func homeCurrency(customer *models.Profile, restaurant *models.Restaurant) string {
	if code := NormalizeCurrency(customer.HomeCurrency); code != "" {
		return code
	}
	return NormalizeCurrency(restaurant.Currency)
}

func auditEvent(activityID, actorID uuid.UUID, action string, details interface{}) models.AuditEvent {
	event := models.AuditEvent{Action: action}
	if activityID != uuid.Nil {
		event.ActivityID = &activityID
	}
	if actorID != uuid.Nil {
		event.ActorID = &actorID
	}
	if payload, err := json.Marshal(details); err == nil {
		event.Details = string(payload)
	}
	return event
}
