package influencers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/Asabi89/ken/database"
	"github.com/Asabi89/ken/ledger"
	"github.com/Asabi89/ken/middleware"
	"github.com/Asabi89/ken/models"
	"github.com/Asabi89/ken/utils"

	"gorm.io/gorm"
)

type SignupRequest struct {
	CompanyName string  `json:"company_name" validate:"required"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Website     *string `json:"website,omitempty"`
	SocialMedia *string `json:"social_media,omitempty"`
	Bio         *string `json:"bio,omitempty"`
}

// POST /v1/influencers/signup
// Upgrades the logged-in account to a pending influencer. Email verification
// and admin approval both have to happen before the account can create tasks.
func SignupHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	var req SignupRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	db := database.DB

	var existing models.InfluencerProfile
	if err := db.Where("user_id = ?", uid).First(&existing).Error; err == nil {
		utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: "Influencer profile already exists"})
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	profile := models.InfluencerProfile{
		UserID:      uid,
		CompanyName: req.CompanyName,
		PhoneNumber: req.PhoneNumber,
		Website:     req.Website,
		SocialMedia: req.SocialMedia,
		Bio:         req.Bio,
		Status:      models.InfluencerStatusPending,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", uid).Update("role", "influencer").Error
	})
	if err != nil {
		log.Printf("[influencer-signup] user=%d error: %v", uid, err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Signup failed, please try again"})
		return
	}

	if verification, err := ledger.Default().IssueOTP(r.Context(), uid); err == nil {
		var user models.User
		if err := db.First(&user, uid).Error; err == nil {
			go utils.SendOTPEmail(user.Email, verification.OTPCode, time.Until(verification.ExpiresAt))
		}
	} else {
		log.Printf("[influencer-signup] IssueOTP user=%d error: %v", uid, err)
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: "Influencer profile created, pending verification and approval",
		Data:    profile,
	})
}

type VerifyRequest struct {
	Code string `json:"code" validate:"required,pin"`
}

// POST /v1/influencers/verify
func VerifyHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	var req VerifyRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	if err := ledger.Default().VerifyInfluencerEmail(r.Context(), uid, req.Code); err != nil {
		switch {
		case errors.Is(err, ledger.ErrOTPInvalid):
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid or expired code"})
		case errors.Is(err, ledger.ErrInfluencerNotFound):
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Influencer profile not found"})
		default:
			log.Printf("[influencer-verify] user=%d error: %v", uid, err)
			utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		}
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Email verified, awaiting admin approval"})
}
