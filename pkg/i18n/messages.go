package i18n

import appErrors "github.com/noah-isme/account-api/pkg/errors"

// Identity failure keys, one per identity error code.
const (
	KeyDuplicateUserName           = "identity.duplicateusername"
	KeyDuplicateEmail              = "identity.duplicateemail"
	KeyInvalidUserName             = "identity.invalidusername"
	KeyInvalidEmail                = "identity.invalidemail"
	KeyPasswordTooShort            = "identity.passwordtooshort"
	KeyPasswordRequiresDigit       = "identity.passwordrequiresdigit"
	KeyPasswordRequiresLower       = "identity.passwordrequireslower"
	KeyPasswordRequiresUpper       = "identity.passwordrequiresupper"
	KeyPasswordRequiresNonAlphanum = "identity.passwordrequiresnonalphanumeric"
)

// Translations use universal-translator's {0} placeholder syntax.
var messages = map[string]map[string]string{
	"en": {
		appErrors.MsgUserNotActive:       "Your account is not active.",
		appErrors.MsgInvalidCredentials:  "Invalid username or password.",
		appErrors.MsgInvalidRefreshToken: "Invalid refresh token.",
		appErrors.MsgInvalidToken:        "Invalid token.",
		appErrors.MsgAuthFailed:          "Authentication failed.",
		appErrors.MsgValidationFailed:    "One or more validation errors occurred.",

		KeyDuplicateUserName:           "Username '{0}' is already taken.",
		KeyDuplicateEmail:              "Email '{0}' is already taken.",
		KeyInvalidUserName:             "Username '{0}' is invalid, can only contain letters or digits.",
		KeyInvalidEmail:                "Email '{0}' is invalid.",
		KeyPasswordTooShort:            "Passwords must be at least {0} characters.",
		KeyPasswordRequiresDigit:       "Passwords must have at least one digit ('0'-'9').",
		KeyPasswordRequiresLower:       "Passwords must have at least one lowercase ('a'-'z').",
		KeyPasswordRequiresUpper:       "Passwords must have at least one uppercase ('A'-'Z').",
		KeyPasswordRequiresNonAlphanum: "Passwords must have at least one non alphanumeric character.",
	},
	"id": {
		appErrors.MsgUserNotActive:       "Akun Anda tidak aktif.",
		appErrors.MsgInvalidCredentials:  "Nama pengguna atau kata sandi salah.",
		appErrors.MsgInvalidRefreshToken: "Refresh token tidak valid.",
		appErrors.MsgInvalidToken:        "Token tidak valid.",
		appErrors.MsgAuthFailed:          "Autentikasi gagal.",
		appErrors.MsgValidationFailed:    "Terjadi satu atau lebih kesalahan validasi.",

		KeyDuplicateUserName:           "Nama pengguna '{0}' sudah digunakan.",
		KeyDuplicateEmail:              "Email '{0}' sudah digunakan.",
		KeyInvalidUserName:             "Nama pengguna '{0}' tidak valid, hanya boleh berisi huruf atau angka.",
		KeyInvalidEmail:                "Email '{0}' tidak valid.",
		KeyPasswordTooShort:            "Kata sandi minimal {0} karakter.",
		KeyPasswordRequiresDigit:       "Kata sandi harus memiliki setidaknya satu angka ('0'-'9').",
		KeyPasswordRequiresLower:       "Kata sandi harus memiliki setidaknya satu huruf kecil ('a'-'z').",
		KeyPasswordRequiresUpper:       "Kata sandi harus memiliki setidaknya satu huruf besar ('A'-'Z').",
		KeyPasswordRequiresNonAlphanum: "Kata sandi harus memiliki setidaknya satu karakter non alfanumerik.",
	},
}
