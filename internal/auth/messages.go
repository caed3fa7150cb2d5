package auth

import "iris-therapy-portal/internal/feedback"

// Local validation messages.
const (
	msgFillBoth          = "Please fill in both fields."
	msgInvalidEmail      = "Invalid email format"
	msgIncompleteOTP     = "Please enter the complete 6-digit OTP."
	msgEnterEmail        = "Please enter your email."
	msgEnterNewPassword  = "Please enter your new password."
	msgPasswordsMismatch = "Passwords do not match."
	msgSignupEmail       = "Enter a valid email address"
	msgWeakPassword      = "Password must be 8+ chars, include uppercase, number & symbol"
	msgUsernameRequired  = "Username is required!"
	msgFirstNameRequired = "First Name is required!"
	msgLastNameRequired  = "Last Name is required!"
	msgDOBRequired       = "Date of Birth is required!"
	msgPhoneInvalid      = "Please enter a valid phone number with country code"
	msgAcceptTerms       = "Please agree to the terms and conditions."
	msgNoIdentity        = "User information not found. Please log in again."
)

var otpRules = []feedback.Rule{
	{Detail: "Invalid OTP code", Kind: feedback.KindAuthentication, Message: "The OTP code is incorrect."},
	{Detail: "OTP has expired", Kind: feedback.KindAuthentication, Message: "The OTP code has expired. Please request a new one."},
	{Detail: "OTP has already been used", Kind: feedback.KindAuthentication, Message: "The OTP code has already been used. Please request a new one."},
}

var (
	loginMessages = feedback.Table{
		Rules: []feedback.Rule{
			{Detail: "Invalid credentials", Kind: feedback.KindAuthentication, Message: "Username or password is incorrect"},
		},
		Fallback: "Something went wrong",
	}

	loginOTPMessages = feedback.Table{
		Rules:    otpRules,
		Fallback: "An error occurred. Please try again.",
	}

	forgotMessages = feedback.Table{
		Rules: []feedback.Rule{
			{Detail: "Invalid email format", Kind: feedback.KindValidation, Message: msgInvalidEmail},
			{Detail: "User not found", Kind: feedback.KindAuthentication, Message: "User not found"},
		},
		Fallback: "An error occurred. Please try again later.",
	}

	resetMessages = feedback.Table{
		Rules:    otpRules,
		Fallback: "An error occurred. Please try again.",
	}

	signupMessages = feedback.Table{
		Rules: []feedback.Rule{
			{Detail: "Email already registered", Kind: feedback.KindConflict, Message: "Email already registered"},
		},
		Fallback: "Something went wrong. Please try again later.",
	}

	onboardingMessages = feedback.Table{
		Rules: []feedback.Rule{
			{Detail: "Username already taken", Kind: feedback.KindConflict, Message: "Username already taken"},
		},
		Fallback: "Something went wrong",
	}
)
