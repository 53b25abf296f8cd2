package internal

const COOKIE_ACCESS_TOKEN_NAME = "lostlink_access_token"
