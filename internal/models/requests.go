package models

// Request bodies for the pairing and authentication endpoints. Required
// fields are validated in the services so that malformed requests and
// failed authentication collapse to the same generic rejection.

type RequestAccessRequest struct {
	UserEmail        string `json:"userEmail"`
	DeviceID         string `json:"deviceId"`
	DeviceAccessCode string `json:"deviceAccessCode"`
	DeviceName       string `json:"deviceName"`
	DeviceType       string `json:"deviceType"`
	DeviceOS         string `json:"deviceOS"`
	AppVersion       string `json:"appVersion"`
}

type CheckDeviceRequest struct {
	UserEmail            string `json:"userEmail"`
	DeviceID             string `json:"deviceId"`
	DeviceAccessCode     string `json:"deviceAccessCode"`
	DeviceValidationCode string `json:"deviceValidationCode"`
}

type GetAuthenticationChallengesRequest struct {
	UserEmail string `json:"userEmail"`
	DeviceID  string `json:"deviceId"`
}

type GetPasswordBackupRequest struct {
	UserEmail               string `json:"userEmail"`
	DeviceID                string `json:"deviceId"`
	DeviceAccessCode        string `json:"deviceAccessCode"` // legacy path
	DeviceChallengeResponse string `json:"deviceChallengeResponse"`
	ResetToken              string `json:"resetToken"`
}

type SharingAuthRequest struct {
	UserEmail               string `json:"userEmail"`
	DeviceID                string `json:"deviceId"`
	DeviceAccessCode        string `json:"deviceAccessCode"` // legacy path
	DeviceChallengeResponse string `json:"deviceChallengeResponse"`
}

type GetContactsForSharedItemRequest struct {
	SharingAuthRequest
	ItemID int64 `json:"itemId"`
}

type StopReceivingSharingRequest struct {
	SharingAuthRequest
	ItemID int64 `json:"itemId"`
}

type CheckEmailAddressForSharingRequest struct {
	SharingAuthRequest
	EmailAddress string `json:"emailAddress"`
}
